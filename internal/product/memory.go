package product

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StockFunc reports live stock from the inventory ledger so that the
// in-memory catalog does not keep a second copy of it.
type StockFunc func(ctx context.Context, productID string) (int, error)

type MemoryRepo struct {
	mu       sync.RWMutex
	products map[string]Product
	stock    StockFunc
}

func NewMemoryRepo(stock StockFunc) *MemoryRepo {
	return &MemoryRepo{products: make(map[string]Product), stock: stock}
}

func (r *MemoryRepo) Create(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	r.products[p.ID] = cp
	return nil
}

func (r *MemoryRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	p, ok := r.products[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if r.stock != nil {
		n, err := r.stock(ctx, id)
		if err != nil {
			return nil, err
		}
		p.StockQuantity = n
	}
	return &p, nil
}

func (r *MemoryRepo) UpdatePrice(_ context.Context, id string, price decimal.Decimal, discount *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Price = price
	p.DiscountPrice = discount
	p.UpdatedAt = time.Now().UTC()
	r.products[id] = p
	return nil
}

// SetActive toggles availability, as the catalog back office would.
func (r *MemoryRepo) SetActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.IsActive = active
		r.products[id] = p
	}
}
