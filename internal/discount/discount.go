// Package discount resolves discount codes against a lookup table.
// The table may be static configuration or a remote service; resolution is a
// pure lookup either way, and unknown codes are an error rather than being
// silently ignored.
package discount

import (
	"context"
	"strings"

	"github.com/gupfee/greenhaus/internal/domain"
)

// ErrUnknownCode is returned when a code does not resolve.
var ErrUnknownCode = domain.ErrInvalidDiscount

// Table supplies DiscountCode records by code string.
type Table interface {
	// Resolve looks up a code, matching case-insensitively.
	Resolve(ctx context.Context, code string) (domain.DiscountCode, error)
}

// StaticTable is an in-memory Table backed by configuration.
type StaticTable struct {
	codes map[string]domain.DiscountCode
}

// NewStaticTable builds a table from configured codes. Codes are normalized
// to upper case so "welcome10" and "WELCOME10" resolve identically.
func NewStaticTable(codes []domain.DiscountCode) *StaticTable {
	m := make(map[string]domain.DiscountCode, len(codes))
	for _, c := range codes {
		m[strings.ToUpper(c.Code)] = c
	}
	return &StaticTable{codes: m}
}

// Resolve implements Table.
func (t *StaticTable) Resolve(ctx context.Context, code string) (domain.DiscountCode, error) {
	c, ok := t.codes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return domain.DiscountCode{}, domain.WrapError(ErrUnknownCode, domain.EDISCOUNT, "discount.resolve",
			"discount code does not resolve")
	}
	return c, nil
}
