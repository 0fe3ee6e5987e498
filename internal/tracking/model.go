// Package tracking is the append-only status and shipping history of an
// order.
package tracking

import (
	"strings"
	"time"

	"github.com/MikeMC777/phonestore/internal/order"
)

type Event struct {
	ID                string       `json:"id"`
	OrderID           string       `json:"order_id"`
	Status            order.Status `json:"status"`
	Description       *string      `json:"description,omitempty"`
	Location          *string      `json:"location,omitempty"`
	TrackingNumber    *string      `json:"tracking_number,omitempty"`
	ShippingPartner   *string      `json:"shipping_partner,omitempty"`
	EstimatedDelivery *time.Time   `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Summary is what "track my order" shows: the current status plus the most
// recent non-empty value of each shipping field.
type Summary struct {
	CurrentStatus     order.Status `json:"current_status"`
	TrackingNumber    *string      `json:"tracking_number,omitempty"`
	ShippingPartner   *string      `json:"shipping_partner,omitempty"`
	EstimatedDelivery *time.Time   `json:"estimated_delivery,omitempty"`
	Events            []Event      `json:"events"`
}

// Current returns the last event of an ascending history.
func Current(history []Event) (Event, bool) {
	if len(history) == 0 {
		return Event{}, false
	}
	return history[len(history)-1], true
}

// Summarize folds history (ascending) into a Summary. fallback is used as
// the current status when the history is empty.
func Summarize(history []Event, fallback order.Status) Summary {
	s := Summary{CurrentStatus: fallback, Events: history}
	if s.Events == nil {
		s.Events = []Event{}
	}
	for _, ev := range history {
		s.CurrentStatus = ev.Status
		if nonEmpty(ev.TrackingNumber) {
			s.TrackingNumber = ev.TrackingNumber
		}
		if nonEmpty(ev.ShippingPartner) {
			s.ShippingPartner = ev.ShippingPartner
		}
		if ev.EstimatedDelivery != nil && !ev.EstimatedDelivery.IsZero() {
			s.EstimatedDelivery = ev.EstimatedDelivery
		}
	}
	return s
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// Text returns a pointer to the trimmed value, or nil when blank.
func Text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
