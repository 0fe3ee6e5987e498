package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Lines     []Line    `json:"lines"`
	// Version is bumped by every write to the cart.
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Line is unique per (cart, product, variant). UnitPriceSnapshot is the
// price seen when the line was added; checkout re-reads the live price.
type Line struct {
	ID                string          `json:"id"`
	CartID            string          `json:"cart_id"`
	ProductID         string          `json:"product_id"`
	VariantID         string          `json:"variant_id,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `json:"unit_price_snapshot"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Subtotal uses the snapshot prices and is for display only.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// AddItemRequest payload for POST /cart/items.
// swagger:model AddItemRequest
type AddItemRequest struct {
	ProductID string `json:"product_id" example:"iphone-15-128"`
	VariantID string `json:"variant_id,omitempty" example:"black"`
	Quantity  int    `json:"quantity" example:"1"`
}

// UpdateItemRequest payload for PATCH /cart/items/:id.
// swagger:model UpdateItemRequest
type UpdateItemRequest struct {
	Quantity int `json:"quantity" example:"2"`
}
