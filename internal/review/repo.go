package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/phonestore/internal/db"
)

type Repository interface {
	// Insert fails with ErrAlreadyReviewed when the user already reviewed
	// the product.
	Insert(ctx context.Context, r *Review) error
	FindByUserProduct(ctx context.Context, userID, productID string) (*Review, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(pool *pgxpool.Pool) *PGRepo { return &PGRepo{db: pool} }

func (r *PGRepo) Insert(ctx context.Context, rv *Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO reviews (id, user_id, product_id, order_id, rating, comment, sentiment, created_at)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8)
	`, rv.ID, rv.UserID, rv.ProductID, rv.OrderID, rv.Rating, rv.Comment, rv.Sentiment, rv.CreatedAt)
	if db.IsUniqueViolation(err, "reviews_user_product_key") {
		return ErrAlreadyReviewed
	}
	return err
}

func (r *PGRepo) FindByUserProduct(ctx context.Context, userID, productID string) (*Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		rv      Review
		orderID *string
	)
	err := db.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT id, user_id, product_id, order_id, rating, comment, sentiment, created_at
		FROM reviews WHERE user_id=$1 AND product_id=$2
	`, userID, productID).Scan(&rv.ID, &rv.UserID, &rv.ProductID, &orderID, &rv.Rating, &rv.Comment, &rv.Sentiment, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if orderID != nil {
		rv.OrderID = *orderID
	}
	return &rv, nil
}

type MemoryRepo struct {
	mu      sync.Mutex
	reviews map[[2]string]Review
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{reviews: make(map[[2]string]Review)}
}

func (r *MemoryRepo) Insert(_ context.Context, rv *Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{rv.UserID, rv.ProductID}
	if _, ok := r.reviews[key]; ok {
		return ErrAlreadyReviewed
	}
	r.reviews[key] = *rv
	return nil
}

func (r *MemoryRepo) FindByUserProduct(_ context.Context, userID, productID string) (*Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[[2]string{userID, productID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &rv, nil
}
