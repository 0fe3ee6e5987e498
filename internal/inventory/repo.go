package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/db"
)

// PGLedger stores stock in products.stock_quantity. Each reservation is one
// conditional UPDATE, so Postgres serializes it on the product row and never
// on the table.
type PGLedger struct{ db *pgxpool.Pool }

func NewPGLedger(pool *pgxpool.Pool) *PGLedger { return &PGLedger{db: pool} }

func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) error {
	if err := validateQty(productID, qty); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn := db.Conn(ctx, l.db)
	var remaining int
	err := conn.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING stock_quantity
	`, productID, qty).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	// Nothing was updated: either the product is missing or stock is short.
	available, err := l.Available(ctx, productID)
	if err != nil {
		return err
	}
	return apperr.InsufficientStock(productID, qty, available)
}

func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	if err := validateQty(productID, qty); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := db.Conn(ctx, l.db).Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return nil
}

func (l *PGLedger) Available(ctx context.Context, productID string) (int, error) {
	var available int
	err := db.Conn(ctx, l.db).QueryRow(ctx,
		`SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("product %s not found", productID)
	}
	return available, err
}
