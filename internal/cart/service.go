package cart

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/product"
)

// Service enforces the cart invariants on top of a Repository.
type Service struct {
	repo    Repository
	catalog product.Catalog
}

func NewService(repo Repository, catalog product.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

func (s *Service) View(ctx context.Context, userID string) (*Cart, error) {
	return s.repo.ForUser(ctx, userID)
}

func (s *Service) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Cart, error) {
	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		return nil, apperr.Invalid("product_id is required")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("quantity must be greater than zero")
	}
	p, err := s.catalog.GetProduct(ctx, productID)
	if errors.Is(err, product.ErrNotFound) {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.ProductUnavailable(productID)
	}

	c, err := s.repo.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddLine(ctx, Line{
		ID:                uuid.NewString(),
		CartID:            c.ID,
		ProductID:         productID,
		VariantID:         strings.TrimSpace(req.VariantID),
		Quantity:          req.Quantity,
		UnitPriceSnapshot: p.EffectivePrice(),
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("quantity must be greater than zero")
	}
	c, err := s.repo.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, c.ID, lineID, qty); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c.ID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (*Cart, error) {
	c, err := s.repo.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLine(ctx, c.ID, lineID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c.ID)
}
