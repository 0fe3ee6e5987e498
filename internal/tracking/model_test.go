package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/txn"
)

func TestSummarizePicksLatestNonEmptyValues(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	eta1 := t0.Add(72 * time.Hour)
	eta2 := t0.Add(48 * time.Hour)

	history := []Event{
		{Status: order.StatusPending, CreatedAt: t0},
		{Status: order.StatusProcessing, CreatedAt: t0.Add(time.Hour)},
		{Status: order.StatusShipped, TrackingNumber: Text("GHN-1"), ShippingPartner: Text("GHN"), EstimatedDelivery: &eta1, CreatedAt: t0.Add(2 * time.Hour)},
		{Status: order.StatusShipped, Location: Text("Da Nang"), TrackingNumber: Text(" "), EstimatedDelivery: &eta2, CreatedAt: t0.Add(3 * time.Hour)},
	}

	s := Summarize(history, order.StatusPending)
	assert.Equal(t, order.StatusShipped, s.CurrentStatus)
	require.NotNil(t, s.TrackingNumber)
	assert.Equal(t, "GHN-1", *s.TrackingNumber)
	assert.Equal(t, "GHN", *s.ShippingPartner)
	assert.Equal(t, eta2, *s.EstimatedDelivery)
	assert.Len(t, s.Events, 4)

	cur, ok := Current(history)
	require.True(t, ok)
	assert.Equal(t, "Da Nang", *cur.Location)
}

func TestSummarizeEmptyHistory(t *testing.T) {
	s := Summarize(nil, order.StatusPending)
	assert.Equal(t, order.StatusPending, s.CurrentStatus)
	assert.NotNil(t, s.Events)
	assert.Nil(t, s.TrackingNumber)

	_, ok := Current(nil)
	assert.False(t, ok)
}

func TestMemoryRepoHistoryIsAscendingAndRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	t0 := time.Now().UTC()

	require.NoError(t, repo.Append(ctx, &Event{OrderID: "o1", Status: order.StatusProcessing, CreatedAt: t0.Add(time.Minute)}))
	require.NoError(t, repo.Append(ctx, &Event{OrderID: "o1", Status: order.StatusPending, CreatedAt: t0}))

	err := txn.Memory{}.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Append(ctx, &Event{OrderID: "o1", Status: order.StatusCancelled}))
		return errors.New("abort")
	})
	require.Error(t, err)

	h, err := repo.History(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, order.StatusPending, h[0].Status)
	assert.Equal(t, order.StatusProcessing, h[1].Status)
	assert.NotEmpty(t, h[0].ID)
}

func TestAppendRequiresOrderAndStatus(t *testing.T) {
	repo := NewMemoryRepo()
	assert.Error(t, repo.Append(context.Background(), &Event{Status: order.StatusPending}))
	assert.Error(t, repo.Append(context.Background(), &Event{OrderID: "o"}))
}
