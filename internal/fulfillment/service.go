// Package fulfillment turns carts into orders and drives orders through
// their lifecycle. Every multi-step mutation runs inside one txn.Runner
// unit so that stock, orders, tracking and carts never diverge.
package fulfillment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/cart"
	"github.com/MikeMC777/phonestore/internal/identity"
	"github.com/MikeMC777/phonestore/internal/inventory"
	"github.com/MikeMC777/phonestore/internal/notify"
	"github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/product"
	"github.com/MikeMC777/phonestore/internal/tracking"
	"github.com/MikeMC777/phonestore/internal/txn"
)

const numberAttempts = 3

var tracer = otel.Tracer("github.com/MikeMC777/phonestore/internal/fulfillment")

// Deps bundles the collaborators of Service.
type Deps struct {
	Tx        txn.Runner
	Carts     cart.Repository
	Catalog   product.Catalog
	Inventory inventory.Ledger
	Orders    order.Repository
	Tracking  tracking.Ledger
	Notifier  notify.Notifier
	Logger    *zap.Logger

	Clock           func() time.Time
	IDGenerator     func() string
	NumberGenerator func(time.Time) string
}

type Service struct {
	tx        txn.Runner
	carts     cart.Repository
	catalog   product.Catalog
	inventory inventory.Ledger
	orders    order.Repository
	tracking  tracking.Ledger
	notifier  notify.Notifier
	log       *zap.Logger
	clock     func() time.Time
	newID     func() string
	newNumber func(time.Time) string
}

func NewService(deps Deps) (*Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, errors.New("fulfillment: tx runner is required")
	case deps.Carts == nil:
		return nil, errors.New("fulfillment: cart repository is required")
	case deps.Catalog == nil:
		return nil, errors.New("fulfillment: catalog is required")
	case deps.Inventory == nil:
		return nil, errors.New("fulfillment: inventory ledger is required")
	case deps.Orders == nil:
		return nil, errors.New("fulfillment: order repository is required")
	case deps.Tracking == nil:
		return nil, errors.New("fulfillment: tracking ledger is required")
	}
	s := &Service{
		tx:        deps.Tx,
		carts:     deps.Carts,
		catalog:   deps.Catalog,
		inventory: deps.Inventory,
		orders:    deps.Orders,
		tracking:  deps.Tracking,
		notifier:  deps.Notifier,
		log:       deps.Logger,
		clock:     deps.Clock,
		newID:     deps.IDGenerator,
		newNumber: deps.NumberGenerator,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(s.log)
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.newNumber == nil {
		s.newNumber = order.NewNumber
	}
	return s, nil
}

func (s *Service) now() time.Time { return s.clock().UTC() }

// Checkout converts the caller's cart into a PENDING order. Stock for every
// line is reserved first; if any line fails the reservations already taken
// are released and nothing else is written.
func (s *Service) Checkout(ctx context.Context, caller identity.Identity, req order.CreateOrderRequest) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "fulfillment.Checkout", trace.WithAttributes(attribute.String("user.id", caller.UserID)))
	defer func() { endSpan(span, err) }()

	if caller.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, apperr.Invalid("shipping address is required")
	}
	pm, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var created *order.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.cartFor(ctx, caller.UserID, req.CartID)
		if err != nil {
			return err
		}
		if c.Empty() {
			return ErrEmptyCart
		}

		items, err := s.reserve(ctx, c.Lines)
		if err != nil {
			return err
		}

		now := s.now()
		if created, err = s.persist(ctx, order.Draft{
			ID:              s.newID(),
			UserID:          caller.UserID,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   pm,
			Note:            req.Note,
			Items:           items,
			Now:             now,
		}); err != nil {
			return err
		}

		if err := s.tracking.Append(ctx, &tracking.Event{
			OrderID:     created.ID,
			Status:      order.StatusPending,
			Description: tracking.Text("Order placed"),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return s.carts.Clear(ctx, c.ID, c.Version)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", created.OrderNumber))
	s.log.Info("order created",
		zap.String("order_number", created.OrderNumber),
		zap.String("user_id", caller.UserID),
		zap.String("total", created.TotalAmount.String()),
		zap.Int("items", len(created.Items)))
	s.emit(ctx, created, notify.EventOrderCreated, "")
	return created, nil
}

// cartFor loads and locks the cart being checked out so that a second
// checkout of the same cart waits and then finds it empty.
func (s *Service) cartFor(ctx context.Context, userID, cartID string) (*cart.Cart, error) {
	if cartID = strings.TrimSpace(cartID); cartID == "" {
		own, err := s.carts.ForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		cartID = own.ID
	}
	c, err := s.carts.ForUpdate(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

// reserve takes stock for every line and snapshots the live effective
// price. On the first failing line it releases what it already took.
func (s *Service) reserve(ctx context.Context, lines []cart.Line) ([]order.Item, error) {
	items := make([]order.Item, 0, len(lines))
	compensate := func() {
		for _, it := range items {
			if err := s.inventory.Release(ctx, it.ProductID, it.Quantity); err != nil {
				s.log.Error("release after failed checkout",
					zap.String("product_id", it.ProductID),
					zap.Int("quantity", it.Quantity),
					zap.Error(err))
			}
		}
	}

	for _, l := range lines {
		p, err := s.catalog.GetProduct(ctx, l.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			compensate()
			return nil, apperr.ProductUnavailable(l.ProductID)
		}
		if err != nil {
			compensate()
			return nil, err
		}
		if !p.IsActive {
			compensate()
			return nil, apperr.ProductUnavailable(l.ProductID)
		}
		if err := s.inventory.Reserve(ctx, l.ProductID, l.Quantity); err != nil {
			compensate()
			return nil, err
		}
		items = append(items, order.Item{
			ID:           s.newID(),
			ProductID:    l.ProductID,
			ColorVariant: l.VariantID,
			Quantity:     l.Quantity,
			UnitPrice:    p.EffectivePrice(),
		})
	}
	return items, nil
}

// persist stores the order, drawing a fresh order number when the previous
// one collided.
func (s *Service) persist(ctx context.Context, d order.Draft) (*order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		d.OrderNumber = s.newNumber(d.Now)
		o, err := order.New(d)
		if err != nil {
			return nil, err
		}
		lastErr = s.orders.Create(ctx, o)
		if lastErr == nil {
			return o, nil
		}
		if !errors.Is(lastErr, order.ErrNumberTaken) {
			return nil, lastErr
		}
		s.log.Warn("order number collision", zap.String("order_number", d.OrderNumber), zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

func (s *Service) GetOrder(ctx context.Context, caller identity.Identity, number string) (*OrderDetail, error) {
	o, err := s.load(ctx, caller, number)
	if err != nil {
		return nil, err
	}
	history, err := s.tracking.History(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{
		Order:     o,
		CanCancel: o.CanCancel(),
		CanReview: o.CanReview(),
		Tracking:  tracking.Summarize(history, o.Status),
	}, nil
}

func (s *Service) ListOrders(ctx context.Context, caller identity.Identity, limit, offset int) (*OrderList, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthenticated
	}
	orders, err := s.orders.ListByUser(ctx, caller.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return &OrderList{Orders: orders, Limit: limit, Offset: offset}, nil
}

func (s *Service) TrackOrder(ctx context.Context, caller identity.Identity, number string) (*tracking.Summary, error) {
	o, err := s.load(ctx, caller, number)
	if err != nil {
		return nil, err
	}
	history, err := s.tracking.History(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	sum := tracking.Summarize(history, o.Status)
	return &sum, nil
}

func (s *Service) load(ctx context.Context, caller identity.Identity, number string) (*order.Order, error) {
	if caller.UserID == "" {
		return nil, ErrUnauthenticated
	}
	o, err := s.orders.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, err
	}
	if !caller.CanAccess(o.UserID) {
		return nil, ErrNotOwner
	}
	return o, nil
}

// CancelOrder moves a PENDING order to CANCELLED and returns its stock. The
// status change, the release and the tracking event commit together.
func (s *Service) CancelOrder(ctx context.Context, caller identity.Identity, number, reason string) (_ *order.Order, err error) {
	ctx, span := tracer.Start(ctx, "fulfillment.CancelOrder", trace.WithAttributes(attribute.String("order.number", number)))
	defer func() { endSpan(span, err) }()

	if caller.UserID == "" {
		return nil, ErrUnauthenticated
	}
	var cancelled *order.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByNumberForUpdate(ctx, strings.TrimSpace(number))
		if err != nil {
			return err
		}
		if !caller.CanAccess(o.UserID) {
			return ErrNotOwner
		}
		next, err := order.Next(o.Status, order.ActionCancel)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.orders.UpdateStatus(ctx, o, next, now); err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := s.inventory.Release(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		desc := strings.TrimSpace(reason)
		if desc == "" {
			desc = "Order cancelled"
		}
		if err := s.tracking.Append(ctx, &tracking.Event{
			OrderID:     o.ID,
			Status:      next,
			Description: tracking.Text(desc),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled",
		zap.String("order_number", cancelled.OrderNumber),
		zap.String("by", caller.UserID),
		zap.Bool("admin", caller.IsAdmin()))
	s.emit(ctx, cancelled, notify.EventOrderCancelled, reason)
	return cancelled, nil
}

// UpdateOrderStatus is the administrative transition. A target of
// CANCELLED takes the cancellation path so stock is always released.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller identity.Identity, number string, req order.UpdateOrderStatusRequest) (_ *order.Order, err error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	target, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if target == order.StatusCancelled {
		return s.CancelOrder(ctx, caller, number, req.Note)
	}
	action, err := order.ActionTo(target)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "fulfillment.UpdateOrderStatus", trace.WithAttributes(
		attribute.String("order.number", number),
		attribute.String("order.status", string(target))))
	defer func() { endSpan(span, err) }()

	var updated *order.Order
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByNumberForUpdate(ctx, strings.TrimSpace(number))
		if err != nil {
			return err
		}
		next, err := order.Next(o.Status, action)
		if err != nil {
			return err
		}
		now := s.now()
		if err := s.orders.UpdateStatus(ctx, o, next, now); err != nil {
			return err
		}
		desc := strings.TrimSpace(req.Note)
		if desc == "" {
			desc = "Order " + next.Label()
		}
		if err := s.tracking.Append(ctx, &tracking.Event{
			OrderID:     o.ID,
			Status:      next,
			Description: tracking.Text(desc),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_number", updated.OrderNumber),
		zap.String("status", string(updated.Status)),
		zap.String("by", caller.UserID))
	s.emit(ctx, updated, notify.EventStatusChanged, req.Note)
	return updated, nil
}

// AddShippingUpdate appends a tracking event carrying shipping details
// without changing the order status.
func (s *Service) AddShippingUpdate(ctx context.Context, caller identity.Identity, number string, req order.ShippingUpdateRequest) (*tracking.Event, error) {
	if !caller.IsAdmin() {
		return nil, ErrAdminOnly
	}
	ev := &tracking.Event{
		Description:     tracking.Text(req.Description),
		Location:        tracking.Text(req.Location),
		TrackingNumber:  tracking.Text(req.TrackingNumber),
		ShippingPartner: tracking.Text(req.ShippingPartner),
	}
	if eta := strings.TrimSpace(req.EstimatedDelivery); eta != "" {
		t, err := time.Parse(time.RFC3339, eta)
		if err != nil {
			return nil, apperr.Invalid("estimated_delivery must be RFC3339: %v", err)
		}
		t = t.UTC()
		ev.EstimatedDelivery = &t
	}
	if ev.Description == nil && ev.Location == nil && ev.TrackingNumber == nil &&
		ev.ShippingPartner == nil && ev.EstimatedDelivery == nil {
		return nil, apperr.Invalid("shipping update carries no information")
	}

	var o *order.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.orders.GetByNumberForUpdate(ctx, strings.TrimSpace(number)); err != nil {
			return err
		}
		if o.Status == order.StatusCancelled {
			return apperr.InvalidOperation("cannot add shipping updates to a cancelled order")
		}
		ev.OrderID = o.ID
		ev.Status = o.Status
		ev.CreatedAt = s.now()
		return s.tracking.Append(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, o, notify.EventShippingUpdate, req.Description)
	return ev, nil
}

// emit notifies the order owner. It runs after commit and never fails the
// operation.
func (s *Service) emit(ctx context.Context, o *order.Order, typ notify.EventType, msg string) {
	err := s.notifier.Notify(ctx, o.UserID, notify.Event{
		Type:        typ,
		OrderNumber: o.OrderNumber,
		Status:      string(o.Status),
		Message:     strings.TrimSpace(msg),
		OccurredAt:  s.now(),
	})
	if err != nil {
		s.log.Warn("notify", zap.String("order_number", o.OrderNumber), zap.Error(err))
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
