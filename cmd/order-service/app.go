package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/phonestore/internal/cart"
	"github.com/MikeMC777/phonestore/internal/config"
	"github.com/MikeMC777/phonestore/internal/db"
	"github.com/MikeMC777/phonestore/internal/fulfillment"
	"github.com/MikeMC777/phonestore/internal/httpx"
	"github.com/MikeMC777/phonestore/internal/identity"
	"github.com/MikeMC777/phonestore/internal/idempotency"
	"github.com/MikeMC777/phonestore/internal/inventory"
	"github.com/MikeMC777/phonestore/internal/notify"
	ord "github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/product"
	"github.com/MikeMC777/phonestore/internal/review"
	"github.com/MikeMC777/phonestore/internal/tracking"
	"github.com/MikeMC777/phonestore/internal/txn"
)

// stores groups one backend's repositories.
type stores struct {
	tx        txn.Runner
	catalog   product.Catalog
	inventory inventory.Ledger
	carts     cart.Repository
	orders    ord.Repository
	tracking  tracking.Ledger
	reviews   review.Repository
	ping      func(context.Context) error
	close     func()
}

func postgresStores(ctx context.Context, dsn string) (*stores, error) {
	pool, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &stores{
		tx:        db.NewTxRunner(pool),
		catalog:   product.NewPGRepo(pool),
		inventory: inventory.NewPGLedger(pool),
		carts:     cart.NewPGRepo(pool),
		orders:    ord.NewPGRepo(pool),
		tracking:  tracking.NewPGRepo(pool),
		reviews:   review.NewPGRepo(pool),
		ping:      pool.Ping,
		close:     pool.Close,
	}, nil
}

// memoryStores backs local demos and handler tests. The catalog is seeded
// with a few phones.
func memoryStores() *stores {
	ledger := inventory.NewMemoryLedger()
	catalog := product.NewMemoryRepo(ledger.Available)
	seed := []struct {
		id, name, price string
		stock           int
	}{
		{"iphone-15-128", "iPhone 15 128GB", "799", 25},
		{"galaxy-s24-256", "Galaxy S24 256GB", "859", 15},
		{"pixel-8-128", "Pixel 8 128GB", "699", 10},
	}
	for _, p := range seed {
		_ = catalog.Create(context.Background(), &product.Product{
			ID: p.id, Name: p.name, Price: decimal.RequireFromString(p.price), IsActive: true,
		})
		ledger.Set(p.id, p.stock)
	}
	return &stores{
		tx:        txn.Memory{},
		catalog:   catalog,
		inventory: ledger,
		carts:     cart.NewMemoryRepo(),
		orders:    ord.NewMemoryRepo(),
		tracking:  tracking.NewMemoryRepo(),
		reviews:   review.NewMemoryRepo(),
		ping:      func(context.Context) error { return nil },
		close:     func() {},
	}
}

type app struct {
	orders   *fulfillment.Service
	carts    *cart.Service
	reviews  *review.Service
	verifier *identity.Verifier
	idem     idempotency.Store
	ping     func(context.Context) error
	log      *zap.Logger
	timeout  time.Duration
}

func newApp(st *stores, verifier *identity.Verifier, notifier notify.Notifier, idem idempotency.Store, log *zap.Logger, timeout time.Duration) (*app, error) {
	orders, err := fulfillment.NewService(fulfillment.Deps{
		Tx:        st.tx,
		Carts:     st.carts,
		Catalog:   st.catalog,
		Inventory: st.inventory,
		Orders:    st.orders,
		Tracking:  st.tracking,
		Notifier:  notifier,
		Logger:    log.Named("fulfillment"),
	})
	if err != nil {
		return nil, err
	}
	reviews, err := review.NewService(review.Deps{
		Reviews: st.reviews,
		Orders:  st.orders,
		Logger:  log.Named("review"),
	})
	if err != nil {
		return nil, err
	}
	return &app{
		orders:   orders,
		carts:    cart.NewService(st.carts, st.catalog),
		reviews:  reviews,
		verifier: verifier,
		idem:     idem,
		ping:     st.ping,
		log:      log,
		timeout:  timeout,
	}, nil
}

func idempotencyStore(cfg config.Config) (idempotency.Store, func()) {
	if cfg.RedisAddr == "" {
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL), func() { _ = rdb.Close() }
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(a.log), httpx.Timeout(a.timeout))

	r.GET("/healthz", func(c *gin.Context) {
		if err := a.ping(c.Request.Context()); err != nil {
			httpx.Abort(c, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/", httpx.Auth(a.verifier))
	api.POST("/orders", idempotency.Middleware(a.idem, "orders", a.log), createOrderHandler(a.orders))
	api.GET("/orders", listOrdersHandler(a.orders))
	api.GET("/orders/:number", getOrderHandler(a.orders))
	api.POST("/orders/:number/cancel", cancelOrderHandler(a.orders))
	api.PUT("/orders/:number/status", updateOrderStatusHandler(a.orders))
	api.GET("/orders/:number/tracking", trackOrderHandler(a.orders))
	api.POST("/orders/:number/tracking", addShippingUpdateHandler(a.orders))

	api.POST("/reviews", createReviewHandler(a.reviews))
	api.GET("/products/:id/review-eligibility", reviewEligibilityHandler(a.reviews))

	api.GET("/cart", getCartHandler(a.carts))
	api.POST("/cart/items", addCartItemHandler(a.carts))
	api.PATCH("/cart/items/:id", updateCartItemHandler(a.carts))
	api.DELETE("/cart/items/:id", removeCartItemHandler(a.carts))
	return r
}
