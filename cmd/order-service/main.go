// @title       Phone Store Order Service
// @version     1.0
// @description Checkout, order lifecycle, tracking and reviews.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	_ "github.com/MikeMC777/phonestore/docs"
	"github.com/MikeMC777/phonestore/internal/config"
	"github.com/MikeMC777/phonestore/internal/identity"
	"github.com/MikeMC777/phonestore/internal/logging"
	"github.com/MikeMC777/phonestore/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("order-service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("config",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.String("store", cfg.StoreBackend),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.Bool("redis", cfg.RedisAddr != ""))

	var st *stores
	if cfg.StoreBackend == config.BackendMemory {
		st = memoryStores()
	} else {
		var err error
		if st, err = postgresStores(ctx, cfg.PostgresDSN); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	defer st.close()

	verifier, err := identity.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}

	var sink notify.Notifier = notify.NewLogNotifier(log.Named("notify"))
	if len(cfg.KafkaBrokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = kn.Close() }()
		sink = kn
	}
	notifier := notify.NewAsync(sink, log.Named("notify"), 5*time.Second)
	defer notifier.Wait()

	idem, closeIdem := idempotencyStore(cfg)
	defer closeIdem()

	a, err := newApp(st, verifier, notifier, idem, log, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("order-service", healthpb.HealthCheckResponse_SERVING)

	errc := make(chan error, 2)
	go func() {
		log.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
		errc <- gs.Serve(lis)
	}()
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	gs.GracefulStop()
	log.Info("order-service shutdown complete")
	return nil
}
