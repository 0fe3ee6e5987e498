package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MikeMC777/phonestore/internal/txn"
)

// MemoryRepo backs local runs and tests. Status updates use the same
// version compare-and-set as PGRepo.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]*Order
	byNumber map[string]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]*Order),
		byNumber: make(map[string]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[o.OrderNumber]; taken {
		return ErrNumberTaken
	}
	cp := clone(o)
	r.byID[o.ID] = cp
	r.byNumber[o.OrderNumber] = o.ID
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		delete(r.byID, o.ID)
		delete(r.byNumber, o.OrderNumber)
		r.mu.Unlock()
	})
	return nil
}

func (r *MemoryRepo) GetByNumber(_ context.Context, number string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNumber[number]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.byID[id]), nil
}

// GetByNumberForUpdate relies on the version check in UpdateStatus instead
// of a lock.
func (r *MemoryRepo) GetByNumberForUpdate(ctx context.Context, number string) (*Order, error) {
	return r.GetByNumber(ctx, number)
}

func (r *MemoryRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	var out []Order
	for _, o := range r.byID {
		if o.UserID == userID {
			cp := clone(o)
			cp.Items = nil
			out = append(out, *cp)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []Order{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, o *Order, status Status, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[o.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != o.Version {
		return ErrVersionConflict
	}
	prev := *stored
	stored.Status = status
	stored.Version++
	stored.UpdatedAt = now
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		stored.Status, stored.Version, stored.UpdatedAt = prev.Status, prev.Version, prev.UpdatedAt
		r.mu.Unlock()
	})

	o.Status = status
	o.Version = stored.Version
	o.UpdatedAt = now
	return nil
}

func (r *MemoryRepo) DeliveredPurchases(_ context.Context, userID, productID string) ([]Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Purchase
	for _, o := range r.byID {
		if o.UserID != userID || o.Status != StatusDelivered || !o.ContainsProduct(productID) {
			continue
		}
		at := o.UpdatedAt
		if at.IsZero() {
			at = o.CreatedAt
		}
		out = append(out, Purchase{OrderID: o.ID, OrderNumber: o.OrderNumber, PurchasedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.Before(out[j].PurchasedAt) })
	return out, nil
}

func clone(o *Order) *Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp
}
