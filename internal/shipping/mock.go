package shipping

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/domain"
)

// MockResolver is a configurable Resolver for tests.
type MockResolver struct {
	ResolveFunc func(ctx context.Context, subtotal decimal.Decimal, tierID string) (domain.ShippingOption, error)
	TiersFunc   func(ctx context.Context, subtotal decimal.Decimal) ([]domain.ShippingOption, error)
}

func (m *MockResolver) Resolve(ctx context.Context, subtotal decimal.Decimal, tierID string) (domain.ShippingOption, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, subtotal, tierID)
	}
	return domain.ShippingOption{TierID: tierID}, nil
}

func (m *MockResolver) Tiers(ctx context.Context, subtotal decimal.Decimal) ([]domain.ShippingOption, error) {
	if m.TiersFunc != nil {
		return m.TiersFunc(ctx, subtotal)
	}
	return nil, nil
}
