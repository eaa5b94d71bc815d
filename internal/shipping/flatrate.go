package shipping

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/domain"
)

// FlatRate defines a single flat-rate shipping tier.
type FlatRate struct {
	TierID          string
	Label           string
	Price           decimal.Decimal
	EstimatedWindow string
}

// FlatRateResolver prices each tier at a fixed amount independent of the
// subtotal, except that the default tier is free once the subtotal reaches
// the free-shipping threshold.
type FlatRateResolver struct {
	tiers       map[string]FlatRate
	defaultTier string
	threshold   decimal.Decimal
}

// NewFlatRateResolver creates a resolver from the configured tier table.
// defaultTier names the tier eligible for free shipping at threshold.
func NewFlatRateResolver(rates []FlatRate, defaultTier string, threshold decimal.Decimal) (*FlatRateResolver, error) {
	if len(rates) == 0 {
		return nil, ErrNoTiers
	}

	tiers := make(map[string]FlatRate, len(rates))
	for _, r := range rates {
		tiers[r.TierID] = r
	}
	if _, ok := tiers[defaultTier]; !ok {
		return nil, domain.Errorf(domain.EINVALID, "shipping.flatrate", "default tier %q is not in the rate table", defaultTier)
	}

	return &FlatRateResolver{
		tiers:       tiers,
		defaultTier: defaultTier,
		threshold:   threshold,
	}, nil
}

// Resolve returns the priced option for the tier.
func (r *FlatRateResolver) Resolve(ctx context.Context, subtotal decimal.Decimal, tierID string) (domain.ShippingOption, error) {
	rate, ok := r.tiers[tierID]
	if !ok {
		return domain.ShippingOption{}, domain.WrapError(ErrUnknownTier, domain.ESHIPPINGTIER, "shipping.resolve",
			"shipping tier is not configured")
	}

	price := rate.Price
	if tierID == r.defaultTier && subtotal.GreaterThanOrEqual(r.threshold) {
		price = decimal.Zero
	}

	return domain.ShippingOption{
		TierID:          rate.TierID,
		Price:           price,
		Label:           rate.Label,
		EstimatedWindow: rate.EstimatedWindow,
	}, nil
}

// Tiers lists all configured options priced for the subtotal, cheapest first.
func (r *FlatRateResolver) Tiers(ctx context.Context, subtotal decimal.Decimal) ([]domain.ShippingOption, error) {
	options := make([]domain.ShippingOption, 0, len(r.tiers))
	for id := range r.tiers {
		opt, err := r.Resolve(ctx, subtotal, id)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}

	sort.Slice(options, func(i, j int) bool {
		if options[i].Price.Equal(options[j].Price) {
			return options[i].TierID < options[j].TierID
		}
		return options[i].Price.LessThan(options[j].Price)
	})

	return options, nil
}
