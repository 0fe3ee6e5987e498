package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/product"
)

type stubCatalog map[string]*product.Product

func (s stubCatalog) GetProduct(_ context.Context, id string) (*product.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func newService() (*Service, *MemoryRepo) {
	discount := decimal.RequireFromString("90")
	catalog := stubCatalog{
		"x":   {ID: "x", Price: decimal.RequireFromString("100"), DiscountPrice: &discount, IsActive: true},
		"y":   {ID: "y", Price: decimal.RequireFromString("50"), IsActive: true},
		"off": {ID: "off", Price: decimal.RequireFromString("10"), IsActive: false},
	}
	repo := NewMemoryRepo()
	return NewService(repo, catalog), repo
}

func TestAddItemMergesSameVariant(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "x", VariantID: "black", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "x", VariantID: "black", Quantity: 2})
	require.NoError(t, err)
	c, err := svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "x", VariantID: "white", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("90").Equal(c.Lines[0].UnitPriceSnapshot))
	assert.True(t, decimal.RequireFromString("360").Equal(c.Subtotal()))
}

func TestAddItemRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "x", Quantity: 0})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "nope", Quantity: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "off", Quantity: 1})
	assert.Equal(t, apperr.KindProductUnavailable, apperr.KindOf(err))
}

func TestUpdateAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	c, err := svc.AddItem(ctx, "u1", AddItemRequest{ProductID: "y", Quantity: 1})
	require.NoError(t, err)
	lineID := c.Lines[0].ID

	c, err = svc.UpdateQuantity(ctx, "u1", lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Lines[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, "u1", lineID, 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateQuantity(ctx, "u2", lineID, 2)
	assert.ErrorIs(t, err, ErrLineNotFound)

	c, err = svc.RemoveItem(ctx, "u1", lineID)
	require.NoError(t, err)
	assert.True(t, c.Empty())
}

func TestClearRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	c, err := svc.AddItem(ctx, "alice", AddItemRequest{ProductID: "x", Quantity: 1})
	require.NoError(t, err)
	seen, err := repo.ForUpdate(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "alice", AddItemRequest{ProductID: "y", Quantity: 1})
	require.NoError(t, err)

	err = repo.Clear(ctx, c.ID, seen.Version)
	assert.ErrorIs(t, err, ErrChanged)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	now, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, now.Lines, 2)
	require.NoError(t, repo.Clear(ctx, c.ID, now.Version))

	now, err = repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, now.Empty())
	assert.Greater(t, now.Version, seen.Version)
}
