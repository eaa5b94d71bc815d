// Package rules loads the externally configurable pricing policy: the
// shipping tier table, the free-shipping threshold, the discount code table,
// and the default tax rate. Policy lives in a config file so merchandising
// changes never require touching the calculator.
package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/shipping"
)

// Config is the parsed pricing rule set.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	DefaultTier           string
	DefaultTaxRate        decimal.Decimal
	Tiers                 []shipping.FlatRate
	Discounts             []domain.DiscountCode
}

type rawTier struct {
	ID              string `mapstructure:"id"`
	Label           string `mapstructure:"label"`
	Price           string `mapstructure:"price"`
	EstimatedWindow string `mapstructure:"estimated_window"`
}

type rawDiscount struct {
	Code  string `mapstructure:"code"`
	Kind  string `mapstructure:"kind"`
	Value string `mapstructure:"value"`
}

type rawConfig struct {
	FreeShippingThreshold string        `mapstructure:"free_shipping_threshold"`
	DefaultTier           string        `mapstructure:"default_tier"`
	DefaultTaxRate        string        `mapstructure:"default_tax_rate"`
	Tiers                 []rawTier     `mapstructure:"tiers"`
	Discounts             []rawDiscount `mapstructure:"discounts"`
}

// Load reads pricing rules from the given file. An empty path loads the
// built-in defaults, which mirror the storefront's launch policy.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read pricing rules %s: %w", path, err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse pricing rules: %w", err)
	}

	return raw.parse()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("free_shipping_threshold", "75.00")
	v.SetDefault("default_tier", "standard")
	v.SetDefault("default_tax_rate", "0")
	v.SetDefault("tiers", []map[string]interface{}{
		{
			"id":               "standard",
			"label":            "Standard Shipping",
			"price":            "5.99",
			"estimated_window": "3-5 business days",
		},
		{
			"id":               "expedited",
			"label":            "Expedited Shipping",
			"price":            "12.99",
			"estimated_window": "1-2 business days",
		},
	})
	v.SetDefault("discounts", []map[string]interface{}{})
}

func (raw rawConfig) parse() (*Config, error) {
	threshold, err := decimal.NewFromString(raw.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid free_shipping_threshold %q: %w", raw.FreeShippingThreshold, err)
	}

	taxRate, err := decimal.NewFromString(raw.DefaultTaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid default_tax_rate %q: %w", raw.DefaultTaxRate, err)
	}

	if len(raw.Tiers) == 0 {
		return nil, fmt.Errorf("pricing rules must configure at least one shipping tier")
	}

	tiers := make([]shipping.FlatRate, 0, len(raw.Tiers))
	for _, t := range raw.Tiers {
		if t.ID == "" {
			return nil, fmt.Errorf("shipping tier is missing an id")
		}
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for tier %s: %w", t.Price, t.ID, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("tier %s has a negative price", t.ID)
		}
		tiers = append(tiers, shipping.FlatRate{
			TierID:          t.ID,
			Label:           t.Label,
			Price:           price,
			EstimatedWindow: t.EstimatedWindow,
		})
	}

	discounts := make([]domain.DiscountCode, 0, len(raw.Discounts))
	for _, d := range raw.Discounts {
		value, err := decimal.NewFromString(d.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q for discount %s: %w", d.Value, d.Code, err)
		}
		kind := domain.DiscountKind(d.Kind)
		if kind != domain.DiscountPercentage && kind != domain.DiscountFixed {
			return nil, fmt.Errorf("discount %s has unknown kind %q", d.Code, d.Kind)
		}
		discounts = append(discounts, domain.DiscountCode{
			Code:  d.Code,
			Kind:  kind,
			Value: value,
		})
	}

	return &Config{
		FreeShippingThreshold: threshold,
		DefaultTier:           raw.DefaultTier,
		DefaultTaxRate:        taxRate,
		Tiers:                 tiers,
		Discounts:             discounts,
	}, nil
}
