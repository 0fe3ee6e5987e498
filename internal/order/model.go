package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/phonestore/internal/apperr"
)

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "COD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentEWallet      PaymentMethod = "E_WALLET"
)

// ParsePaymentMethod maps user input to a PaymentMethod; empty means COD.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); pm {
	case "":
		return PaymentCOD, nil
	case PaymentCOD, PaymentBankTransfer, PaymentCreditCard, PaymentEWallet:
		return pm, nil
	default:
		return "", apperr.Invalid("unsupported payment method %q", s)
	}
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	Note            string          `json:"note,omitempty"`
	Version         int             `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Items           []Item          `json:"items,omitempty"`
}

// Item is a price snapshot taken at checkout. It never points back at the
// live catalog price.
type Item struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	ProductID    string          `json:"product_id"`
	ColorVariant string          `json:"color_variant,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

func (it Item) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Draft carries everything needed to build a new order.
type Draft struct {
	ID              string
	OrderNumber     string
	UserID          string
	ShippingAddress string
	PaymentMethod   PaymentMethod
	Note            string
	Items           []Item
	Now             time.Time
}

// New validates d and freezes the total. TotalAmount is never recomputed
// after this point.
func New(d Draft) (*Order, error) {
	address := strings.TrimSpace(d.ShippingAddress)
	if address == "" {
		return nil, apperr.Invalid("shipping address is required")
	}
	if d.UserID == "" {
		return nil, apperr.Invalid("user id is required")
	}
	if len(d.Items) == 0 {
		return nil, apperr.Invalid("order must contain at least one item")
	}
	pm := d.PaymentMethod
	if pm == "" {
		pm = PaymentCOD
	}

	total := decimal.Zero
	items := make([]Item, len(d.Items))
	for i, it := range d.Items {
		if it.Quantity <= 0 {
			return nil, apperr.Invalid("item %s: quantity must be greater than zero", it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return nil, apperr.Invalid("item %s: unit price must not be negative", it.ProductID)
		}
		it.OrderID = d.ID
		items[i] = it
		total = total.Add(it.Subtotal())
	}

	return &Order{
		ID:              d.ID,
		OrderNumber:     d.OrderNumber,
		UserID:          d.UserID,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: address,
		PaymentMethod:   pm,
		Note:            strings.TrimSpace(d.Note),
		CreatedAt:       d.Now,
		UpdatedAt:       d.Now,
		Items:           items,
	}, nil
}

func (o *Order) CanCancel() bool { return o.Status == StatusPending }

func (o *Order) CanReview() bool { return o.Status == StatusDelivered }

func (o *Order) ContainsProduct(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Purchase is one delivered order that contained a given product.
type Purchase struct {
	OrderID     string
	OrderNumber string
	PurchasedAt time.Time
}
