package tracking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/db"
	"github.com/MikeMC777/phonestore/internal/txn"
)

// Ledger is append-only: there is no update or delete.
type Ledger interface {
	Append(ctx context.Context, ev *Event) error
	// History returns every event of the order ascending by CreatedAt.
	History(ctx context.Context, orderID string) ([]Event, error)
}

func prepare(ev *Event) error {
	if ev.OrderID == "" {
		return apperr.Invalid("tracking event requires an order id")
	}
	if ev.Status == "" {
		return apperr.Invalid("tracking event requires a status")
	}
	if ev.ID == "" {
		ev.ID = "trk_" + ulid.Make().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return nil
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

func (r *PGRepo) Append(ctx context.Context, ev *Event) error {
	if err := prepare(ev); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO order_tracking (id, order_id, status, description, location, tracking_number, shipping_partner, estimated_delivery, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, ev.ID, ev.OrderID, ev.Status, ev.Description, ev.Location, ev.TrackingNumber, ev.ShippingPartner, ev.EstimatedDelivery, ev.CreatedAt)
	return err
}

func (r *PGRepo) History(ctx context.Context, orderID string) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.Conn(ctx, r.db).Query(ctx, `
		SELECT id, order_id, status, description, location, tracking_number, shipping_partner, estimated_delivery, created_at
		FROM order_tracking
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.Status, &ev.Description, &ev.Location,
			&ev.TrackingNumber, &ev.ShippingPartner, &ev.EstimatedDelivery, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type MemoryRepo struct {
	mu      sync.RWMutex
	byOrder map[string][]Event
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byOrder: make(map[string][]Event)}
}

func (r *MemoryRepo) Append(ctx context.Context, ev *Event) error {
	if err := prepare(ev); err != nil {
		return err
	}
	r.mu.Lock()
	r.byOrder[ev.OrderID] = append(r.byOrder[ev.OrderID], *ev)
	r.mu.Unlock()

	id, orderID := ev.ID, ev.OrderID
	txn.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		evs := r.byOrder[orderID]
		for i := range evs {
			if evs[i].ID == id {
				r.byOrder[orderID] = append(evs[:i:i], evs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *MemoryRepo) History(_ context.Context, orderID string) ([]Event, error) {
	r.mu.RLock()
	out := append([]Event(nil), r.byOrder[orderID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
