package review

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/order"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func placeOrder(t *testing.T, repo *order.MemoryRepo, number, userID string, at time.Time, productIDs ...string) *order.Order {
	t.Helper()
	var items []order.Item
	for _, pid := range productIDs {
		items = append(items, order.Item{ID: number + pid, ProductID: pid, Quantity: 1, UnitPrice: decimal.NewFromInt(100)})
	}
	o, err := order.New(order.Draft{
		ID: "id-" + number, OrderNumber: number, UserID: userID,
		ShippingAddress: "1 Main St", Items: items, Now: at,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func deliver(t *testing.T, repo *order.MemoryRepo, o *order.Order, at time.Time) {
	t.Helper()
	for _, st := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered} {
		require.NoError(t, repo.UpdateStatus(context.Background(), o, st, at))
	}
}

func newService(t *testing.T) (*Service, *order.MemoryRepo) {
	t.Helper()
	orders := order.NewMemoryRepo()
	svc, err := NewService(Deps{
		Reviews: NewMemoryRepo(),
		Orders:  orders,
		Clock:   func() time.Time { return t0.Add(72 * time.Hour) },
	})
	require.NoError(t, err)
	return svc, orders
}

func TestCreateRequiresDeliveredPurchaseAndIsOnce(t *testing.T) {
	ctx := context.Background()
	svc, orders := newService(t)
	o := placeOrder(t, orders, "ORD20250601100000AAA", "u1", t0, "p1")

	_, err := svc.Create(ctx, "u1", CreateReviewRequest{ProductID: "p1", Rating: 5, Comment: "great"})
	assert.ErrorIs(t, err, ErrNotPurchased)
	assert.NotEqual(t, apperr.KindValidation, apperr.KindOf(err))

	deliver(t, orders, o, t0.Add(48*time.Hour))

	rv, err := svc.Create(ctx, "u1", CreateReviewRequest{ProductID: "p1", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rv.ID, "rev_"))
	assert.Equal(t, SentimentPositive, rv.Sentiment)
	assert.Equal(t, t0.Add(48*time.Hour), rv.PurchasedAt)

	_, err = svc.Create(ctx, "u1", CreateReviewRequest{ProductID: "p1", Rating: 3})
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Create(ctx, "u2", CreateReviewRequest{ProductID: "p1", Rating: 3})
	assert.ErrorIs(t, err, ErrNotPurchased)
}

func TestCreateByOrderNumber(t *testing.T) {
	ctx := context.Background()
	svc, orders := newService(t)
	single := placeOrder(t, orders, "ORD20250601100000AAA", "u1", t0, "p1")
	multi := placeOrder(t, orders, "ORD20250601100000BBB", "u1", t0, "p2", "p3")
	deliver(t, orders, single, t0.Add(time.Hour))
	deliver(t, orders, multi, t0.Add(time.Hour))

	rv, err := svc.Create(ctx, "u1", CreateReviewRequest{OrderNumber: single.OrderNumber, Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, "p1", rv.ProductID)
	assert.Equal(t, single.ID, rv.OrderID)
	assert.Equal(t, SentimentNegative, rv.Sentiment)

	_, err = svc.Create(ctx, "u1", CreateReviewRequest{OrderNumber: multi.OrderNumber, Rating: 4})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(ctx, "u1", CreateReviewRequest{OrderNumber: multi.OrderNumber, ProductID: "p9", Rating: 4})
	assert.ErrorIs(t, err, ErrNotPurchased)

	_, err = svc.Create(ctx, "u2", CreateReviewRequest{OrderNumber: multi.OrderNumber, ProductID: "p2", Rating: 4})
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(ctx, "u1", CreateReviewRequest{ProductID: "p1", Rating: rating})
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", rating)
	}

	long := strings.Repeat("word ", MaxCommentWords+1)
	_, err := svc.Create(ctx, "u1", CreateReviewRequest{ProductID: "p1", Rating: 4, Comment: long})
	assert.ErrorIs(t, err, ErrCommentTooLong)

	_, err = svc.Create(ctx, "u1", CreateReviewRequest{Rating: 4})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGateFirstPurchaseDate(t *testing.T) {
	ctx := context.Background()
	svc, orders := newService(t)
	late := placeOrder(t, orders, "ORD20250601100000AAA", "u1", t0, "p1")
	early := placeOrder(t, orders, "ORD20250601100000BBB", "u1", t0, "p1")
	deliver(t, orders, late, t0.Add(10*time.Hour))
	deliver(t, orders, early, t0.Add(2*time.Hour))

	first, err := svc.Gate().FirstPurchaseDate(ctx, "u1", "p1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, t0.Add(2*time.Hour), *first)

	none, err := svc.Gate().FirstPurchaseDate(ctx, "u1", "p2")
	require.NoError(t, err)
	assert.Nil(t, none)

	ok, err := svc.Gate().CanReview(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SentimentNegative, Classify(1))
	assert.Equal(t, SentimentNegative, Classify(2))
	assert.Equal(t, SentimentNeutral, Classify(3))
	assert.Equal(t, SentimentPositive, Classify(4))
	assert.Equal(t, SentimentPositive, Classify(5))
}
