package order

// CreateOrderRequest checkout payload.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	CartID          string `json:"cart_id,omitempty" example:"4e7d4e5c-5cb9-4a3f-9f21-7e1a4f9f2b2a"`
	ShippingAddress string `json:"shipping_address" example:"12 Nguyen Hue, District 1, HCMC"`
	Note            string `json:"note,omitempty"   example:"Call before delivery"`
	PaymentMethod   string `json:"payment_method,omitempty" example:"COD"`
}

// UpdateOrderStatusRequest admin status change.
// swagger:model UpdateOrderStatusRequest
type UpdateOrderStatusRequest struct {
	Status string `json:"status" example:"PROCESSING"`
	Note   string `json:"note,omitempty" example:"Packed at HCM warehouse"`
}

// CancelOrderRequest optional cancellation reason.
// swagger:model CancelOrderRequest
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" example:"Changed my mind"`
}

// ShippingUpdateRequest free-form tracking update (no status change).
// swagger:model ShippingUpdateRequest
type ShippingUpdateRequest struct {
	Description       string `json:"description,omitempty" example:"Arrived at sorting center"`
	Location          string `json:"location,omitempty" example:"Da Nang"`
	TrackingNumber    string `json:"tracking_number,omitempty" example:"GHN123456789"`
	ShippingPartner   string `json:"shipping_partner,omitempty" example:"GHN"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty" example:"2025-06-01T10:00:00Z"`
}
