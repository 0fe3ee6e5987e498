package fulfillment

import (
	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/tracking"
)

var (
	ErrEmptyCart       = apperr.New(apperr.KindEmptyCart, "empty_cart", "cart is empty")
	ErrUnauthenticated = apperr.New(apperr.KindPermissionDenied, "unauthenticated", "authentication required")
	ErrNotOwner        = apperr.New(apperr.KindPermissionDenied, "forbidden", "you do not have access to this order")
	ErrAdminOnly       = apperr.New(apperr.KindPermissionDenied, "admin_only", "administrator role required")
)

// OrderDetail is the order as shown to its owner: items, the tracking
// summary and the actions currently allowed.
type OrderDetail struct {
	*order.Order
	CanCancel bool             `json:"can_cancel"`
	CanReview bool             `json:"can_review"`
	Tracking  tracking.Summary `json:"tracking"`
}

// OrderList is returned by GET /orders.
type OrderList struct {
	Orders []order.Order `json:"orders"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
