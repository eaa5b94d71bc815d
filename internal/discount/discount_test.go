package discount_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gupfee/greenhaus/internal/discount"
	"github.com/gupfee/greenhaus/internal/domain"
)

func makeTestTable() *discount.StaticTable {
	return discount.NewStaticTable([]domain.DiscountCode{
		{Code: "WELCOME10", Kind: domain.DiscountPercentage, Value: decimal.NewFromInt(10)},
		{Code: "PLANTLOVE", Kind: domain.DiscountFixed, Value: decimal.RequireFromString("5.00")},
	})
}

func TestStaticTable_Resolve(t *testing.T) {
	table := makeTestTable()

	code, err := table.Resolve(context.Background(), "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, domain.DiscountPercentage, code.Kind)
	assert.True(t, code.Value.Equal(decimal.NewFromInt(10)))
}

func TestStaticTable_Resolve_CaseInsensitive(t *testing.T) {
	table := makeTestTable()

	for _, input := range []string{"welcome10", "Welcome10", "  WELCOME10  "} {
		code, err := table.Resolve(context.Background(), input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, "WELCOME10", code.Code)
	}
}

func TestStaticTable_Resolve_UnknownCode(t *testing.T) {
	table := makeTestTable()

	_, err := table.Resolve(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, discount.ErrUnknownCode))
	assert.True(t, domain.IsCode(err, domain.EDISCOUNT))
}
