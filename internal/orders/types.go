package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusProcessed Status = "processed"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentCashOnDelivery is the only payment method the storefront takes.
const PaymentCashOnDelivery = "cash_on_delivery"

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessed, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the forward-only lifecycle: queued -> processed,
// processed -> delivered, anything -> cancelled. Nothing moves back to queued.
func (s Status) CanTransitionTo(next Status) bool {
	if next == StatusCancelled {
		return s != StatusCancelled
	}
	switch s {
	case StatusQueued:
		return next == StatusProcessed
	case StatusProcessed:
		return next == StatusDelivered
	}
	return false
}

// Order is the record stored in both the Operational Orders and Order
// Tracking collections.
type Order struct {
	OrderID       string          `json:"order_id"`
	Items         map[string]int  `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CustomerEmail string          `json:"customer_email"`
	PaymentMethod string          `json:"payment_method"`
	Status        Status          `json:"status"`
	QueuedAt      time.Time       `json:"queued_at"`
	ProcessedAt   *time.Time      `json:"processed_at"`

	// Fulfillment fields, blank by default and never touched by the core.
	DeliveryStatus  string `json:"delivery_status"`
	DeliveryAddress string `json:"delivery_address"`
	ContactNumber   string `json:"contact_number"`
	Notes           string `json:"notes"`
}

// Fulfillment carries the optional delivery details collected at checkout.
// The lifecycle copies them onto the order verbatim and never mutates them.
type Fulfillment struct {
	DeliveryAddress string
	ContactNumber   string
	Notes           string
}

// SetStatus moves the order to next. ProcessedAt is stamped exactly once, on
// the first entry into processed; a later call can never overwrite it.
func (o *Order) SetStatus(next Status, now time.Time) {
	o.Status = next
	if next == StatusProcessed && o.ProcessedAt == nil {
		t := now
		o.ProcessedAt = &t
	}
}
