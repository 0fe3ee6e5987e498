//go:build integration

package fulfillment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/cart"
	"github.com/MikeMC777/phonestore/internal/db"
	"github.com/MikeMC777/phonestore/internal/identity"
	"github.com/MikeMC777/phonestore/internal/inventory"
	"github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/product"
	"github.com/MikeMC777/phonestore/internal/review"
	"github.com/MikeMC777/phonestore/internal/tracking"
)

type pgFixture struct {
	pool    *pgxpool.Pool
	svc     *Service
	carts   *cart.Service
	catalog *product.PGRepo
	ledger  *inventory.PGLedger
	reviews *review.Service
}

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgC, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("phonestore"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, db.Migrate(ctx, pool))
	return pool
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	pool := startPostgres(t)
	f := &pgFixture{
		pool:    pool,
		catalog: product.NewPGRepo(pool),
		ledger:  inventory.NewPGLedger(pool),
	}
	carts := cart.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)
	f.carts = cart.NewService(carts, f.catalog)

	svc, err := NewService(Deps{
		Tx:        db.NewTxRunner(pool),
		Carts:     carts,
		Catalog:   f.catalog,
		Inventory: f.ledger,
		Orders:    orders,
		Tracking:  tracking.NewPGRepo(pool),
		Notifier:  &recorder{},
	})
	require.NoError(t, err)
	f.svc = svc

	f.reviews, err = review.NewService(review.Deps{Reviews: review.NewPGRepo(pool), Orders: orders})
	require.NoError(t, err)
	return f
}

func (f *pgFixture) product(t *testing.T, id, price string, stock int) {
	t.Helper()
	require.NoError(t, f.catalog.Create(context.Background(), &product.Product{
		ID: id, Name: id, Price: decimal.RequireFromString(price), StockQuantity: stock, IsActive: true,
	}))
}

func (f *pgFixture) add(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), userID, cart.AddItemRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *pgFixture) stock(t *testing.T, productID string) int {
	t.Helper()
	n, err := f.ledger.Available(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func (f *pgFixture) checkout(t *testing.T, who identity.Identity) *order.Order {
	t.Helper()
	o, err := f.svc.Checkout(context.Background(), who, order.CreateOrderRequest{ShippingAddress: "12 Le Loi, District 1"})
	require.NoError(t, err)
	return o
}

func TestPostgresCheckoutAndCancel(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "X", "100", 5)
	f.product(t, "Y", "50", 1)

	f.add(t, alice.UserID, "X", 2)
	f.add(t, alice.UserID, "Y", 1)
	o := f.checkout(t, alice)

	assert.True(t, decimal.NewFromInt(250).Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.Equal(t, 3, f.stock(t, "X"))
	assert.Equal(t, 0, f.stock(t, "Y"))
	c, err := f.carts.View(ctx, alice.UserID)
	require.NoError(t, err)
	assert.True(t, c.Empty())

	d, err := f.svc.GetOrder(ctx, alice, o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "X", d.Items[0].ProductID)
	assert.Equal(t, "Y", d.Items[1].ProductID)
	assert.True(t, d.CanCancel)

	cancelled, err := f.svc.CancelOrder(ctx, alice, o.OrderNumber, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, f.stock(t, "X"))
	assert.Equal(t, 1, f.stock(t, "Y"))

	_, err = f.svc.CancelOrder(ctx, alice, o.OrderNumber, "")
	assert.EqualError(t, err, "cannot cancel order already cancelled")
	assert.Equal(t, 5, f.stock(t, "X"))

	summary, err := f.svc.TrackOrder(ctx, alice, o.OrderNumber)
	require.NoError(t, err)
	require.Len(t, summary.Events, 2)
	assert.Equal(t, order.StatusCancelled, summary.CurrentStatus)
}

func TestPostgresInsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "A", "10", 10)
	f.product(t, "Z", "20", 3)
	f.add(t, alice.UserID, "A", 4)
	f.add(t, alice.UserID, "Z", 10)

	_, err := f.svc.Checkout(ctx, alice, order.CreateOrderRequest{ShippingAddress: "addr"})
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindInsufficientStock, e.Kind)
	assert.Equal(t, "Insufficient stock for product Z. Requested: 10, Available: 3", e.Message)

	assert.Equal(t, 10, f.stock(t, "A"))
	assert.Equal(t, 3, f.stock(t, "Z"))
	list, err := f.svc.ListOrders(ctx, alice, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Orders)
	c, err := f.carts.View(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, c.Lines, 2)
}

func TestPostgresConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newPGFixture(t)
	f.product(t, "X", "100", 5)

	const buyers = 12
	for i := 0; i < buyers; i++ {
		f.add(t, fmt.Sprintf("u%d", i), "X", 1)
	}

	var (
		wg sync.WaitGroup
		ok atomic.Int32
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			who := identity.Identity{UserID: fmt.Sprintf("u%d", i), Role: identity.RoleCustomer}
			_, err := f.svc.Checkout(context.Background(), who, order.CreateOrderRequest{ShippingAddress: "addr"})
			if err == nil {
				ok.Add(1)
				return
			}
			assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 5, ok.Load())
	assert.Equal(t, 0, f.stock(t, "X"))
}

func TestPostgresConcurrentCheckoutsOfOneCart(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "X", "100", 100)

	const rounds = 10
	for i := 0; i < rounds; i++ {
		f.add(t, alice.UserID, "X", 2)
		before := f.stock(t, "X")

		var (
			wg   sync.WaitGroup
			errs [2]error
		)
		for j := range errs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = f.svc.Checkout(ctx, alice, order.CreateOrderRequest{ShippingAddress: "addr"})
			}(j)
		}
		wg.Wait()

		require.True(t, (errs[0] == nil) != (errs[1] == nil), "round %d: %v / %v", i, errs[0], errs[1])
		for _, err := range errs {
			if err != nil {
				kind := apperr.KindOf(err)
				assert.True(t, kind == apperr.KindEmptyCart || kind == apperr.KindConflict, "loser got %v", err)
			}
		}
		assert.Equal(t, before-2, f.stock(t, "X"), "round %d", i)
	}

	list, err := f.svc.ListOrders(ctx, alice, 100, 0)
	require.NoError(t, err)
	assert.Len(t, list.Orders, rounds)
}

func TestPostgresCancelAndAdvanceRace(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "X", "100", 50)

	for i := 0; i < 10; i++ {
		f.add(t, alice.UserID, "X", 1)
		o := f.checkout(t, alice)
		before := f.stock(t, "X")

		var (
			wg                 sync.WaitGroup
			cancelErr, moveErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancelErr = f.svc.CancelOrder(ctx, alice, o.OrderNumber, "")
		}()
		go func() {
			defer wg.Done()
			_, moveErr = f.svc.UpdateOrderStatus(ctx, admin, o.OrderNumber, order.UpdateOrderStatusRequest{Status: "PROCESSING"})
		}()
		wg.Wait()

		require.True(t, (cancelErr == nil) != (moveErr == nil), "cancel=%v move=%v", cancelErr, moveErr)
		d, err := f.svc.GetOrder(ctx, alice, o.OrderNumber)
		require.NoError(t, err)
		if cancelErr == nil {
			assert.Equal(t, order.StatusCancelled, d.Status)
			assert.Equal(t, before+1, f.stock(t, "X"))
		} else {
			assert.Equal(t, order.StatusProcessing, d.Status)
			assert.Equal(t, before, f.stock(t, "X"))
		}
		assert.Len(t, d.Tracking.Events, 2)
	}
}

func TestPostgresReviewAfterDelivery(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "X", "100", 5)
	f.add(t, alice.UserID, "X", 1)
	o := f.checkout(t, alice)

	_, err := f.reviews.Create(ctx, alice.UserID, review.CreateReviewRequest{ProductID: "X", Rating: 5})
	assert.ErrorIs(t, err, review.ErrNotPurchased)

	for _, st := range []string{"PROCESSING", "SHIPPED", "DELIVERED"} {
		_, err := f.svc.UpdateOrderStatus(ctx, admin, o.OrderNumber, order.UpdateOrderStatusRequest{Status: st})
		require.NoError(t, err, st)
	}

	e, err := f.reviews.Eligibility(ctx, alice.UserID, "X")
	require.NoError(t, err)
	assert.True(t, e.CanReview)
	require.NotNil(t, e.FirstPurchaseDate)

	rv, err := f.reviews.Create(ctx, alice.UserID, review.CreateReviewRequest{OrderNumber: o.OrderNumber, Rating: 4, Comment: "Great battery"})
	require.NoError(t, err)
	assert.Equal(t, "X", rv.ProductID)

	_, err = f.reviews.Create(ctx, alice.UserID, review.CreateReviewRequest{ProductID: "X", Rating: 3})
	assert.ErrorIs(t, err, review.ErrAlreadyReviewed)
}

func TestPostgresCheckoutSnapshotsDiscountPrice(t *testing.T) {
	ctx := context.Background()
	f := newPGFixture(t)
	f.product(t, "X", "100", 5)
	f.add(t, alice.UserID, "X", 2)

	discount := decimal.RequireFromString("79.50")
	require.NoError(t, f.catalog.UpdatePrice(ctx, "X", decimal.RequireFromString("100"), &discount))
	o := f.checkout(t, alice)
	assert.True(t, decimal.RequireFromString("159").Equal(o.TotalAmount), "total %s", o.TotalAmount)

	require.NoError(t, f.catalog.UpdatePrice(ctx, "X", decimal.RequireFromString("999"), nil))
	d, err := f.svc.GetOrder(ctx, alice, o.OrderNumber)
	require.NoError(t, err)
	assert.True(t, discount.Equal(d.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("159").Equal(d.TotalAmount))
}
