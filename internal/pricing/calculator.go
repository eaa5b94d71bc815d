// Package pricing computes order quotes. The calculator is pure and
// deterministic: the same cart snapshot and options always produce the same
// quote, so callers may recompute freely as inputs change.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/discount"
	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/shipping"
)

var oneHundred = decimal.NewFromInt(100)

// Calculator derives an OrderQuote from a cart snapshot, a shipping tier,
// an optional discount code, and a jurisdiction tax rate.
//
// Pricing policy (fixed, applied consistently across every caller):
//   - percentage discounts apply to the subtotal only, never shipping or tax
//   - the discount is clamped so it cannot exceed subtotal + shipping
//   - tax is computed on the discounted subtotal; shipping is untaxed
//   - the total is clamped to a minimum of 0.00
//
// Amounts are kept at full decimal precision and rounded half-up to two
// places per quote field, so repeated computation never compounds rounding
// error.
type Calculator struct {
	resolver  shipping.Resolver
	discounts discount.Table
}

// NewCalculator creates a calculator over the given rule sources.
func NewCalculator(resolver shipping.Resolver, discounts discount.Table) *Calculator {
	return &Calculator{
		resolver:  resolver,
		discounts: discounts,
	}
}

// Quote computes the order quote for the snapshot.
//
// An empty cart still resolves the shipping tier (so misconfigured tiers are
// caught early) but ships for free, ignores any discount code, and totals to
// zero. A discount code that does not resolve is an error, never silently
// dropped.
func (c *Calculator) Quote(ctx context.Context, snap domain.CartSnapshot, req domain.QuoteRequest) (*domain.OrderQuote, error) {
	subtotal := decimal.Zero
	for _, item := range snap.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	option, err := c.resolver.Resolve(ctx, subtotal, req.ShippingTier)
	if err != nil {
		return nil, err
	}

	shippingCost := option.Price
	if snap.IsEmpty() {
		shippingCost = decimal.Zero
		option.Price = decimal.Zero
	}

	disc := decimal.Zero
	appliedCode := ""
	if req.DiscountCode != "" && !snap.IsEmpty() {
		code, err := c.discounts.Resolve(ctx, req.DiscountCode)
		if err != nil {
			return nil, err
		}
		switch code.Kind {
		case domain.DiscountPercentage:
			disc = subtotal.Mul(code.Value).Div(oneHundred)
		case domain.DiscountFixed:
			disc = code.Value
		default:
			return nil, domain.Errorf(domain.EDISCOUNT, "pricing.quote", "unsupported discount kind %q", code.Kind)
		}
		appliedCode = code.Code

		// Clamp so the total can never go negative.
		if max := subtotal.Add(shippingCost); disc.GreaterThan(max) {
			disc = max
		}
	}

	taxable := subtotal.Sub(disc)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(req.TaxRate).Round(2)

	subtotal = subtotal.Round(2)
	shippingCost = shippingCost.Round(2)
	disc = disc.Round(2)

	total := subtotal.Add(shippingCost).Add(tax).Sub(disc).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &domain.OrderQuote{
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		Discount:     disc,
		Total:        total,
		Shipping:     option,
		DiscountCode: appliedCode,
	}, nil
}
