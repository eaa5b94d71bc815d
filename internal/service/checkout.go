package service

import (
	"context"
	"log/slog"

	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/order"
)

// CheckoutRequest bundles everything needed to place an order: the pricing
// inputs plus the shopper's delivery and payment details.
type CheckoutRequest struct {
	Quote           domain.QuoteRequest `json:"quote"`
	ShippingAddress order.Address       `json:"shipping_address"`
	PaymentMethod   order.PaymentMethod `json:"payment_method"`
	CustomerNotes   string              `json:"customer_notes,omitempty"`
}

// CheckoutResult pairs the confirmation with the quote the order was
// priced at.
type CheckoutResult struct {
	Confirmation order.Confirmation `json:"confirmation"`
	Quote        domain.OrderQuote  `json:"quote"`
}

// CheckoutService finalizes a cart into an order. It re-quotes at submission
// time so the order always carries prices computed from the committed cart
// state, then hands the bundle to the submitter. The cart is cleared only
// after the submitter confirms; any failure leaves it intact so the shopper
// can retry.
type CheckoutService struct {
	carts     domain.CartController
	submitter order.Submitter
	logger    *slog.Logger
}

func NewCheckoutService(carts domain.CartController, submitter order.Submitter, logger *slog.Logger) *CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutService{carts: carts, submitter: submitter, logger: logger}
}

// Submit prices the current cart, submits the order, and clears the cart on
// success. Submitter failures pass through unchanged; the service never
// reinterprets payment-specific reasons.
func (s *CheckoutService) Submit(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	const op = "checkout.submit"

	snap := s.carts.Snapshot()
	if snap.IsEmpty() {
		return nil, domain.WrapError(ErrEmptyCart, domain.EINVALID, op, "cannot check out an empty cart")
	}

	quote, err := s.carts.GetQuote(ctx, req.Quote)
	if err != nil {
		return nil, err
	}

	conf, err := s.submitter.Submit(ctx, order.Submission{
		Items:           snap.Items,
		Quote:           *quote,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CustomerNotes:   req.CustomerNotes,
	})
	if err != nil {
		s.logger.Warn("order submission failed, cart retained",
			"item_count", snap.ItemCount,
			"error", err,
		)
		return nil, err
	}

	// Clearing is housekeeping after the sale; a persistence hiccup here
	// must not mask the confirmed order.
	if _, err := s.carts.ClearCart(ctx); err != nil {
		s.logger.Warn("failed to clear cart after successful order",
			"order_number", conf.OrderNumber,
			"error", err,
		)
	}

	s.logger.Info("order submitted",
		"order_number", conf.OrderNumber,
		"item_count", snap.ItemCount,
		"total", quote.Total,
	)

	return &CheckoutResult{Confirmation: *conf, Quote: *quote}, nil
}
