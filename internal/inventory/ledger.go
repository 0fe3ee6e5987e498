// Package inventory owns available stock per product. Reservations are a
// single compare-and-decrement; releases are unconditional increments.
package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/txn"
)

// Ledger is implemented by PGLedger and MemoryLedger.
type Ledger interface {
	// Reserve decrements stock by qty iff at least qty is available. On
	// shortage it mutates nothing and returns an apperr.KindInsufficientStock
	// error carrying the available amount.
	Reserve(ctx context.Context, productID string, qty int) error
	// Release adds qty back. It never fails for a known product.
	Release(ctx context.Context, productID string, qty int) error
	// Available reports current stock.
	Available(ctx context.Context, productID string) (int, error)
}

func validateQty(productID string, qty int) error {
	if productID == "" {
		return apperr.Invalid("product id is required")
	}
	if qty <= 0 {
		return apperr.Invalid("quantity must be greater than zero, got %d", qty)
	}
	return nil
}

// MemoryLedger keeps stock in process memory, one lock per product so that
// reservations on different products never contend.
type MemoryLedger struct {
	mu     sync.RWMutex
	stocks map[string]*stockCell
}

type stockCell struct {
	mu        sync.Mutex
	available int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{stocks: make(map[string]*stockCell)}
}

// Set seeds or overwrites stock for a product.
func (l *MemoryLedger) Set(productID string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stocks[productID] = &stockCell{available: qty}
}

func (l *MemoryLedger) cell(productID string) (*stockCell, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.stocks[productID]
	if !ok {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	return c, nil
}

func (l *MemoryLedger) Reserve(ctx context.Context, productID string, qty int) error {
	if err := validateQty(productID, qty); err != nil {
		return err
	}
	c, err := l.cell(productID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.available < qty {
		return apperr.InsufficientStock(productID, qty, c.available)
	}
	c.available -= qty
	txn.OnRollback(ctx, func() { l.add(c, qty) })
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, productID string, qty int) error {
	if err := validateQty(productID, qty); err != nil {
		return err
	}
	c, err := l.cell(productID)
	if err != nil {
		return err
	}
	l.add(c, qty)
	txn.OnRollback(ctx, func() { l.add(c, -qty) })
	return nil
}

func (l *MemoryLedger) add(c *stockCell, delta int) {
	c.mu.Lock()
	c.available += delta
	c.mu.Unlock()
}

func (l *MemoryLedger) Available(_ context.Context, productID string) (int, error) {
	c, err := l.cell(productID)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available, nil
}

// String is used in test failure output.
func (l *MemoryLedger) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]int, len(l.stocks))
	for id, c := range l.stocks {
		c.mu.Lock()
		out[id] = c.available
		c.mu.Unlock()
	}
	return fmt.Sprint(out)
}
