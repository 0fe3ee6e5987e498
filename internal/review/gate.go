// Package review gates and records product reviews. Only users who received
// a product may review it, once.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/MikeMC777/phonestore/internal/order"
)

// Purchases is the slice of order.Repository the gate reads.
type Purchases interface {
	DeliveredPurchases(ctx context.Context, userID, productID string) ([]order.Purchase, error)
}

type Gate struct {
	purchases Purchases
	reviews   Repository
}

func NewGate(purchases Purchases, reviews Repository) *Gate {
	return &Gate{purchases: purchases, reviews: reviews}
}

// FirstPurchaseDate returns the earliest delivered purchase, or nil.
func (g *Gate) FirstPurchaseDate(ctx context.Context, userID, productID string) (*time.Time, error) {
	ps, err := g.purchases.DeliveredPurchases(ctx, userID, productID)
	if err != nil || len(ps) == 0 {
		return nil, err
	}
	first := ps[0].PurchasedAt
	for _, p := range ps[1:] {
		if p.PurchasedAt.Before(first) {
			first = p.PurchasedAt
		}
	}
	return &first, nil
}

// CanReview is true when the product was delivered to the user and they
// have not reviewed it yet.
func (g *Gate) CanReview(ctx context.Context, userID, productID string) (bool, error) {
	e, err := g.Check(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return e.CanReview, nil
}

func (g *Gate) Check(ctx context.Context, userID, productID string) (Eligibility, error) {
	e := Eligibility{ProductID: productID}
	first, err := g.FirstPurchaseDate(ctx, userID, productID)
	if err != nil {
		return e, err
	}
	e.HasPurchased = first != nil
	e.FirstPurchaseDate = first

	_, err = g.reviews.FindByUserProduct(ctx, userID, productID)
	switch {
	case err == nil:
		e.AlreadyReviewed = true
	case !errors.Is(err, ErrNotFound):
		return e, err
	}
	e.CanReview = e.HasPurchased && !e.AlreadyReviewed
	return e, nil
}
