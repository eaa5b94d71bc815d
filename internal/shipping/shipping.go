// Package shipping resolves a cart subtotal and chosen tier to a priced
// shipping option. The rule table comes from configuration, never from code,
// so business policy changes do not require a deploy.
package shipping

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/domain"
)

// Resolver maps (subtotal, tierId) to a shipping option.
// Implementations can be flat-rate tables today and weight- or zone-based
// rules later without changing the pricing calculator's contract.
type Resolver interface {
	// Resolve returns the shipping option for the given subtotal and tier.
	// Unknown tiers fail with a domain error carrying ESHIPPINGTIER.
	Resolve(ctx context.Context, subtotal decimal.Decimal, tierID string) (domain.ShippingOption, error)

	// Tiers lists the configured options priced against the given subtotal,
	// cheapest first, for display on cart and checkout screens.
	Tiers(ctx context.Context, subtotal decimal.Decimal) ([]domain.ShippingOption, error)
}
