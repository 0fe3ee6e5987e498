// Package cart holds a user's lines prior to checkout.
package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/db"
)

var (
	ErrNotFound     = apperr.New(apperr.KindNotFound, "cart_not_found", "cart not found")
	ErrLineNotFound = apperr.New(apperr.KindNotFound, "cart_line_not_found", "cart item not found")
	ErrChanged      = apperr.New(apperr.KindConflict, "cart_changed", "cart changed during checkout, reload it and retry")
)

type Repository interface {
	// ForUser returns the user's cart, creating an empty one on first use.
	ForUser(ctx context.Context, userID string) (*Cart, error)
	Get(ctx context.Context, cartID string) (*Cart, error)
	// ForUpdate loads the cart and, inside a transaction, holds it against
	// other checkouts until that transaction ends.
	ForUpdate(ctx context.Context, cartID string) (*Cart, error)
	// AddLine merges into an existing (product, variant) line by adding
	// quantities.
	AddLine(ctx context.Context, l Line) error
	SetQuantity(ctx context.Context, cartID, lineID string, qty int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	// Clear empties the cart only if it is still at version; otherwise it
	// returns ErrChanged and leaves the lines alone.
	Clear(ctx context.Context, cartID string, version int) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

func (r *PGRepo) ForUser(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn := db.Conn(ctx, r.db)
	if _, err := conn.Exec(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1,$2,NOW(),NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.NewString(), userID); err != nil {
		return nil, err
	}
	var id string
	if err := conn.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&id); err != nil {
		return nil, err
	}
	return r.load(ctx, conn, id)
}

func (r *PGRepo) Get(ctx context.Context, cartID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.load(ctx, db.Conn(ctx, r.db), cartID)
}

func (r *PGRepo) ForUpdate(ctx context.Context, cartID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn := db.Conn(ctx, r.db)
	var id string
	err := conn.QueryRow(ctx, `SELECT id FROM carts WHERE id=$1 FOR UPDATE`, cartID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.load(ctx, conn, id)
}

func (r *PGRepo) load(ctx context.Context, conn db.Querier, cartID string) (*Cart, error) {
	var c Cart
	err := conn.QueryRow(ctx, `
		SELECT id, user_id, version, created_at, updated_at FROM carts WHERE id=$1
	`, cartID).Scan(&c.ID, &c.UserID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, `
		SELECT id, cart_id, product_id, variant_id, quantity, unit_price_snapshot::text, created_at
		FROM cart_lines WHERE cart_id=$1
		ORDER BY created_at, id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l     Line
			price string
		)
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.VariantID, &l.Quantity, &price, &l.CreatedAt); err != nil {
			return nil, err
		}
		if l.UnitPriceSnapshot, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		c.Lines = append(c.Lines, l)
	}
	return &c, rows.Err()
}

func (r *PGRepo) AddLine(ctx context.Context, l Line) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO cart_lines (id, cart_id, product_id, variant_id, quantity, unit_price_snapshot, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT ON CONSTRAINT cart_lines_unique_variant
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity,
		              unit_price_snapshot = EXCLUDED.unit_price_snapshot
	`, l.ID, l.CartID, l.ProductID, l.VariantID, l.Quantity, l.UnitPriceSnapshot.String())
	if err != nil {
		return err
	}
	return r.touch(ctx, l.CartID)
}

func (r *PGRepo) SetQuantity(ctx context.Context, cartID, lineID string, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := db.Conn(ctx, r.db).Exec(ctx, `
		UPDATE cart_lines SET quantity=$3 WHERE id=$2 AND cart_id=$1
	`, cartID, lineID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *PGRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM cart_lines WHERE id=$2 AND cart_id=$1`, cartID, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return r.touch(ctx, cartID)
}

func (r *PGRepo) Clear(ctx context.Context, cartID string, version int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn := db.Conn(ctx, r.db)
	tag, err := conn.Exec(ctx, `
		UPDATE carts SET version = version + 1, updated_at = NOW()
		WHERE id=$1 AND version=$2
	`, cartID, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChanged
	}
	_, err = conn.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id=$1`, cartID)
	return err
}

func (r *PGRepo) touch(ctx context.Context, cartID string) error {
	_, err := db.Conn(ctx, r.db).Exec(ctx, `UPDATE carts SET version = version + 1, updated_at = NOW() WHERE id=$1`, cartID)
	return err
}
