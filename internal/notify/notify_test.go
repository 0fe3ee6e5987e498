package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorder) Notify(ctx context.Context, _ string, ev Event) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func TestAsyncDeliversAfterCallerCancels(t *testing.T) {
	rec := &recorder{}
	a := NewAsync(rec, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.Notify(ctx, "u1", Event{Type: EventOrderCreated, OrderNumber: "ORD1"}))
	a.Wait()

	assert.Len(t, rec.events, 1)
}

func TestAsyncLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	rec := &recorder{err: errors.New("broker down")}
	a := NewAsync(rec, zap.New(core), time.Second)

	assert.NoError(t, a.Notify(context.Background(), "u1", Event{Type: EventOrderCancelled, OrderNumber: "ORD1"}))
	a.Wait()

	entries := logs.FilterMessage("notification failed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "ORD1", entries[0].ContextMap()["order_number"])
	}
}
