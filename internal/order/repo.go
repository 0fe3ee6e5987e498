package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/db"
)

var (
	ErrNotFound        = apperr.New(apperr.KindNotFound, "order_not_found", "order not found")
	ErrNumberTaken     = apperr.New(apperr.KindConflict, "order_number_taken", "order number already in use")
	ErrVersionConflict = apperr.New(apperr.KindConflict, "order_modified", "order was modified concurrently, reload and retry")
)

type Repository interface {
	// Create stores o and its items atomically.
	Create(ctx context.Context, o *Order) error
	GetByNumber(ctx context.Context, number string) (*Order, error)
	// GetByNumberForUpdate loads the order and holds its row lock until the
	// surrounding unit of work ends.
	GetByNumberForUpdate(ctx context.Context, number string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	// UpdateStatus moves o to status iff o.Version still matches the stored
	// version, then bumps o.Version and o.UpdatedAt.
	UpdateStatus(ctx context.Context, o *Order, status Status, now time.Time) error
	DeliveredPurchases(ctx context.Context, userID, productID string) ([]Purchase, error)
}

const orderColumns = `id, order_number, user_id, total_amount::text, status, shipping_address, payment_method, note, version, created_at, updated_at`

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	err := db.NewTxRunner(r.db).WithinTx(ctx, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		if _, err := conn.Exec(ctx, `
			INSERT INTO orders (id, order_number, user_id, total_amount, status, shipping_address, payment_method, note, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$9,$9)
		`, o.ID, o.OrderNumber, o.UserID, o.TotalAmount.String(), o.Status, o.ShippingAddress, o.PaymentMethod, o.Note, o.CreatedAt); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(`
				INSERT INTO order_items (id, order_id, position, product_id, color_variant, quantity, unit_price)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, it.ID, o.ID, i, it.ProductID, it.ColorVariant, it.Quantity, it.UnitPrice.String())
		}
		return conn.SendBatch(ctx, batch).Close()
	})
	if db.IsUniqueViolation(err, "orders_order_number_key") {
		return ErrNumberTaken
	}
	return err
}

func (r *PGRepo) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, number)
}

func (r *PGRepo) GetByNumberForUpdate(ctx context.Context, number string) (*Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number=$1 FOR UPDATE`, number)
}

func (r *PGRepo) get(ctx context.Context, query, number string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn := db.Conn(ctx, r.db)
	o, err := scanOrder(conn.QueryRow(ctx, query, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if o.Items, err = r.items(ctx, conn, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) items(ctx context.Context, conn db.Querier, orderID string) ([]Item, error) {
	rows, err := conn.Query(ctx, `
		SELECT id, order_id, product_id, color_variant, quantity, unit_price::text
		FROM order_items WHERE order_id=$1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ColorVariant, &it.Quantity, &price); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Conn(ctx, r.db).Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, o *Order, status Status, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := db.Conn(ctx, r.db).Exec(ctx, `
		UPDATE orders
		SET status = $2, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $3
	`, o.ID, status, o.Version, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	o.Status = status
	o.Version++
	o.UpdatedAt = now
	return nil
}

func (r *PGRepo) DeliveredPurchases(ctx context.Context, userID, productID string) ([]Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.Conn(ctx, r.db).Query(ctx, `
		SELECT o.id, o.order_number, COALESCE(o.updated_at, o.created_at) AS purchased_at
		FROM orders o
		WHERE o.user_id = $1 AND o.status = $3
		  AND EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id AND i.product_id = $2)
		ORDER BY purchased_at ASC
	`, userID, productID, StatusDelivered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.OrderID, &p.OrderNumber, &p.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o     Order
		total string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &total, &o.Status, &o.ShippingAddress,
		&o.PaymentMethod, &o.Note, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if o.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &o, nil
}
