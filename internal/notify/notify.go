// Package notify delivers order events to users outside the consistency
// boundary of the operation that produced them.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type EventType string

const (
	EventOrderCreated   EventType = "order.created"
	EventOrderCancelled EventType = "order.cancelled"
	EventStatusChanged  EventType = "order.status_changed"
	EventShippingUpdate EventType = "order.shipping_updated"
)

type Event struct {
	Type        EventType `json:"type"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status,omitempty"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, userID string, ev Event) error
}

// KafkaNotifier publishes one message per event keyed by user id so that a
// user's events stay ordered within a partition.
type KafkaNotifier struct {
	w *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}
}

type message struct {
	UserID string `json:"user_id"`
	Event
}

func (n *KafkaNotifier) Notify(ctx context.Context, userID string, ev Event) error {
	body, err := json.Marshal(message{UserID: userID, Event: ev})
	if err != nil {
		return err
	}
	return n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	})
}

func (n *KafkaNotifier) Close() error { return n.w.Close() }

// LogNotifier is used when no broker is configured.
type LogNotifier struct{ log *zap.Logger }

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID string, ev Event) error {
	n.log.Info("notification",
		zap.String("user_id", userID),
		zap.String("type", string(ev.Type)),
		zap.String("order_number", ev.OrderNumber),
		zap.String("status", ev.Status))
	return nil
}

// Async runs the wrapped notifier in the background. Failures are logged
// and never returned to the caller.
type Async struct {
	next    Notifier
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, log *zap.Logger, timeout time.Duration) *Async {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Async{next: next, log: log, timeout: timeout}
}

func (a *Async) Notify(ctx context.Context, userID string, ev Event) error {
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		if err := a.next.Notify(ctx, userID, ev); err != nil {
			a.log.Warn("notification failed",
				zap.String("user_id", userID),
				zap.String("type", string(ev.Type)),
				zap.String("order_number", ev.OrderNumber),
				zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish. Called on shutdown.
func (a *Async) Wait() { a.wg.Wait() }
