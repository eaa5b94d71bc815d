// Package order defines the order submission boundary. The engine's
// responsibility ends at producing a valid quote and handing the bundle off;
// payment capture and fulfillment belong to the collaborator behind the
// Submitter interface.
package order

import (
	"context"
	"time"

	"github.com/gupfee/greenhaus/internal/domain"
)

// Address is the shipping destination included in a submission.
type Address struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentMethod carries the shopper's chosen payment instrument.
// Card fields are only set for the credit_card kind.
type PaymentMethod struct {
	Kind       string `json:"kind"` // "credit_card" or "paypal"
	CardNumber string `json:"card_number,omitempty"`
	CardExpiry string `json:"card_expiry,omitempty"` // MM/YY
	CardCVC    string `json:"card_cvc,omitempty"`
	CardName   string `json:"card_name,omitempty"`
}

// Submission is the finalized bundle handed to the collaborator.
type Submission struct {
	Items           []domain.LineItem `json:"items"`
	Quote           domain.OrderQuote `json:"quote"`
	ShippingAddress Address           `json:"shipping_address"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	CustomerNotes   string            `json:"customer_notes,omitempty"`
}

// Confirmation is returned on successful submission.
type Confirmation struct {
	OrderNumber string    `json:"order_number"`
	PaymentID   string    `json:"payment_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submitter accepts a finalized order bundle and returns an order identifier
// or a typed failure. Failures are opaque to the engine: it does not
// interpret payment-specific reasons, it only keeps the cart intact until a
// submission succeeds.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (*Confirmation, error)
}
