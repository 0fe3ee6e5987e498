package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/order"
)

const reviewIDPrefix = "rev_"

// Orders is the slice of order.Repository the service needs.
type Orders interface {
	Purchases
	GetByNumber(ctx context.Context, number string) (*order.Order, error)
}

type Deps struct {
	Reviews     Repository
	Orders      Orders
	Logger      *zap.Logger
	Clock       func() time.Time
	IDGenerator func() string
}

type Service struct {
	reviews Repository
	orders  Orders
	gate    *Gate
	log     *zap.Logger
	clock   func() time.Time
	newID   func() string
}

func NewService(deps Deps) (*Service, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service: review repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("review service: order repository is required")
	}
	s := &Service{
		reviews: deps.Reviews,
		orders:  deps.Orders,
		gate:    NewGate(deps.Orders, deps.Reviews),
		log:     deps.Logger,
		clock:   deps.Clock,
		newID:   deps.IDGenerator,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return reviewIDPrefix + ulid.Make().String() }
	}
	return s, nil
}

func (s *Service) Gate() *Gate { return s.gate }

func (s *Service) Eligibility(ctx context.Context, userID, productID string) (Eligibility, error) {
	return s.gate.Check(ctx, userID, productID)
}

// Create records a review after checking the purchase gate. When
// req.OrderNumber is set the order must belong to userID, be delivered and
// contain the product; a single-product order may omit product_id.
func (s *Service) Create(ctx context.Context, userID string, req CreateReviewRequest) (*Review, error) {
	if err := validate(req.Rating, req.Comment); err != nil {
		return nil, err
	}
	productID := strings.TrimSpace(req.ProductID)

	var orderID string
	if num := strings.TrimSpace(req.OrderNumber); num != "" {
		o, err := s.orders.GetByNumber(ctx, num)
		if errors.Is(err, order.ErrNotFound) || (err == nil && o.UserID != userID) {
			return nil, order.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if productID == "" && len(o.Items) == 1 {
			productID = o.Items[0].ProductID
		}
		if productID == "" {
			return nil, apperr.Invalid("product_id is required for orders with several products")
		}
		if o.Status != order.StatusDelivered || !o.ContainsProduct(productID) {
			return nil, ErrNotPurchased
		}
		orderID = o.ID
	}
	if productID == "" {
		return nil, apperr.Invalid("product_id or order_number is required")
	}

	e, err := s.gate.Check(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !e.HasPurchased {
		return nil, ErrNotPurchased
	}
	if e.AlreadyReviewed {
		return nil, ErrAlreadyReviewed
	}

	rv := &Review{
		ID:          s.newID(),
		UserID:      userID,
		ProductID:   productID,
		OrderID:     orderID,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		Sentiment:   Classify(req.Rating),
		PurchasedAt: *e.FirstPurchaseDate,
		CreatedAt:   s.clock().UTC(),
	}
	if err := s.reviews.Insert(ctx, rv); err != nil {
		return nil, err
	}
	s.log.Info("review created",
		zap.String("review_id", rv.ID),
		zap.String("product_id", productID),
		zap.String("sentiment", string(rv.Sentiment)))
	return rv, nil
}
