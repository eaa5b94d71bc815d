package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrInsufficientStock = &Error{Code: EINSUFFICIENTSTOCK, Message: "Requested quantity exceeds available stock"}
	ErrInvalidDiscount   = &Error{Code: EDISCOUNT, Message: "Discount code is not valid"}
	ErrUnknownTier       = &Error{Code: ESHIPPINGTIER, Message: "Shipping tier is not configured"}
	ErrPersistenceFailed = &Error{Code: EPERSISTENCE, Message: "Cart could not be saved to durable storage"}
	ErrSubmissionFailed  = &Error{Code: EORDERSUBMIT, Message: "Order submission failed"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrInvalidSnapshot   = &Error{Code: EINVALID, Message: "Product snapshot is missing required fields"}
)

// =============================================================================
// PRODUCTS AND LINE ITEMS
// =============================================================================

// ProductSnapshot is the point-in-time product data captured when an item is
// added to the cart. It is not live-linked to catalog changes: price and stock
// reflect what the shopper saw at add-time.
type ProductSnapshot struct {
	ProductID      string          `json:"product_id" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ImageRef       string          `json:"image_ref"`
	AvailableStock int             `json:"available_stock" validate:"gte=0"`
}

// LineItem is one product-and-quantity entry in a cart.
// Quantity is always >= 1; a quantity of 0 removes the item instead.
type LineItem struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ImageRef       string          `json:"image_ref"`
	AvailableStock int             `json:"available_stock"`
	Quantity       int             `json:"quantity"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
}

// CartSnapshot is an immutable copy of the cart's line items with derived
// totals, taken for display, pricing, or persistence. Item order is the
// insertion order.
type CartSnapshot struct {
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// IsEmpty reports whether the snapshot holds no line items.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// =============================================================================
// SHIPPING, DISCOUNTS, QUOTES
// =============================================================================

// ShippingOption is a named, priced shipping tier resolved for a quote.
type ShippingOption struct {
	TierID          string          `json:"tier_id"`
	Price           decimal.Decimal `json:"price"`
	Label           string          `json:"label"`
	EstimatedWindow string          `json:"estimated_window"`
}

// DiscountKind distinguishes percentage discounts from fixed-amount ones.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// DiscountCode is a resolvable discount. Codes match case-insensitively.
// For percentage kinds Value is the percentage (10 = 10% off the subtotal);
// for fixed kinds Value is a flat currency amount.
type DiscountCode struct {
	Code  string          `json:"code"`
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// OrderQuote is a computed, point-in-time breakdown for the current cart and
// chosen options. Immutable once constructed; inputs changing means a new
// quote is computed.
type OrderQuote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Shipping     ShippingOption  `json:"shipping"`
	DiscountCode string          `json:"discount_code,omitempty"`
}

// QuoteRequest carries the caller-chosen options for a quote.
type QuoteRequest struct {
	ShippingTier string
	DiscountCode string // optional; empty means no discount
	TaxRate      decimal.Decimal
}

// =============================================================================
// CONTROLLER CONTRACT
// =============================================================================

// CartUpdate is the change event emitted after every successful mutation.
type CartUpdate struct {
	CartID    string       `json:"cart_id"`
	ItemCount int          `json:"item_count"`
	Snapshot  CartSnapshot `json:"snapshot"`
}

// CartController is the externally-facing cart orchestration contract; the
// only surface other layers interact with. Mutations are serialized per cart
// instance and persisted to durable storage on success. If the persistence
// write fails after the in-memory mutation succeeds, implementations keep the
// in-memory state and return the new snapshot together with an
// EPERSISTENCE-coded error, so the caller can treat it as a warning.
type CartController interface {
	// AddToCart adds qty units of the product, merging with an existing line
	// item for the same product ID.
	AddToCart(ctx context.Context, product ProductSnapshot, qty int) (*CartSnapshot, error)

	// UpdateQuantity sets the absolute quantity for a product.
	// A quantity of 0 or less removes the item.
	UpdateQuantity(ctx context.Context, productID string, qty int) (*CartSnapshot, error)

	// RemoveFromCart removes the product's line item; absent items are a no-op.
	RemoveFromCart(ctx context.Context, productID string) (*CartSnapshot, error)

	// ClearCart empties the cart.
	ClearCart(ctx context.Context) (*CartSnapshot, error)

	// GetQuote computes an order quote for the current cart. Read-only:
	// repeated calls with identical inputs return identical results.
	GetQuote(ctx context.Context, req QuoteRequest) (*OrderQuote, error)

	// IsInCart reports whether the product has a line item in the cart.
	IsInCart(productID string) bool

	// Snapshot returns the latest committed cart state.
	Snapshot() CartSnapshot

	// Resync re-reads the durable snapshot, replacing in-memory state.
	// A missing snapshot yields an empty cart, never an error.
	Resync(ctx context.Context) (*CartSnapshot, error)
}
