// Package product is the read side of the catalog the fulfillment core
// depends on: current price, activity flag and stock of a product.
package product

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/phonestore/internal/db"
)

var (
	ErrNotFound = errors.New("product not found")
)

// Catalog is the contract checkout needs from the catalog store.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}


type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO products (id, name, description, price, discount_price, stock_quantity, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, p.ID, p.Name, p.Description, p.Price.String(), nullableDecimal(p.DiscountPrice), p.StockQuantity, p.IsActive)
	return err
}

func (r *PGRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		p             Product
		price         string
		discountPrice *string
	)
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, name, description, price::text, discount_price::text, stock_quantity, is_active, created_at, updated_at
		FROM products WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &price, &discountPrice, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if discountPrice != nil {
		d, err := decimal.NewFromString(*discountPrice)
		if err != nil {
			return nil, err
		}
		p.DiscountPrice = &d
	}
	return &p, nil
}

func (r *PGRepo) UpdatePrice(ctx context.Context, id string, price decimal.Decimal, discount *decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := db.Conn(ctx, r.db).Exec(ctx, `
		UPDATE products
		SET price = $2, discount_price = $3, updated_at = NOW()
		WHERE id = $1
	`, id, price.String(), nullableDecimal(discount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
