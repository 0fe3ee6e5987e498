package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeMC777/phonestore/internal/txn"
)

type MemoryRepo struct {
	mu     sync.Mutex
	carts  map[string]*Cart
	byUser map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{carts: make(map[string]*Cart), byUser: make(map[string]string)}
}

func (r *MemoryRepo) ForUser(_ context.Context, userID string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byUser[userID]; ok {
		return cloneCart(r.carts[id]), nil
	}
	now := time.Now().UTC()
	c := &Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.carts[c.ID] = c
	r.byUser[userID] = c.ID
	return cloneCart(c), nil
}

func (r *MemoryRepo) Get(_ context.Context, cartID string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCart(c), nil
}

// ForUpdate is Get; the memory store detects a racing checkout through the
// version Clear checks instead of a lock.
func (r *MemoryRepo) ForUpdate(ctx context.Context, cartID string) (*Cart, error) {
	return r.Get(ctx, cartID)
}

// mutate applies fn to the stored cart and registers the previous lines for
// rollback.
func (r *MemoryRepo) mutate(ctx context.Context, cartID string, fn func(c *Cart) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok {
		return ErrNotFound
	}
	prev := append([]Line(nil), c.Lines...)
	if err := fn(c); err != nil {
		return err
	}
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		c.Lines = prev
		r.mu.Unlock()
	})
	return nil
}

func (r *MemoryRepo) AddLine(ctx context.Context, l Line) error {
	return r.mutate(ctx, l.CartID, func(c *Cart) error {
		for i := range c.Lines {
			if c.Lines[i].ProductID == l.ProductID && c.Lines[i].VariantID == l.VariantID {
				c.Lines[i].Quantity += l.Quantity
				c.Lines[i].UnitPriceSnapshot = l.UnitPriceSnapshot
				return nil
			}
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}
		c.Lines = append(c.Lines, l)
		return nil
	})
}

func (r *MemoryRepo) SetQuantity(ctx context.Context, cartID, lineID string, qty int) error {
	return r.mutate(ctx, cartID, func(c *Cart) error {
		lines := append([]Line(nil), c.Lines...)
		for i := range lines {
			if lines[i].ID == lineID {
				lines[i].Quantity = qty
				c.Lines = lines
				return nil
			}
		}
		return ErrLineNotFound
	})
}

func (r *MemoryRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	return r.mutate(ctx, cartID, func(c *Cart) error {
		for i := range c.Lines {
			if c.Lines[i].ID == lineID {
				lines := append([]Line(nil), c.Lines[:i]...)
				c.Lines = append(lines, c.Lines[i+1:]...)
				return nil
			}
		}
		return ErrLineNotFound
	})
}

func (r *MemoryRepo) Clear(ctx context.Context, cartID string, version int) error {
	return r.mutate(ctx, cartID, func(c *Cart) error {
		if c.Version != version {
			return ErrChanged
		}
		c.Lines = nil
		return nil
	})
}

func cloneCart(c *Cart) *Cart {
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp
}
