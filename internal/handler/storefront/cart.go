// Package storefront exposes the cart and checkout API consumed by the
// storefront client.
package storefront

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/handler"
	"github.com/gupfee/greenhaus/internal/router"
)

// QuoteDefaults fills in pricing inputs the client omitted. Tier comes
// from the rules config; TaxRate from the deployment config.
type QuoteDefaults struct {
	Tier    string
	TaxRate decimal.Decimal
}

func (d QuoteDefaults) apply(req *domain.QuoteRequest) {
	if req.ShippingTier == "" {
		req.ShippingTier = d.Tier
	}
	if req.TaxRate.IsZero() {
		req.TaxRate = d.TaxRate
	}
}

// CartHandler handles all cart API routes.
type CartHandler struct {
	carts    domain.CartController
	defaults QuoteDefaults
	logger   *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts domain.CartController, defaults QuoteDefaults, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{carts: carts, defaults: defaults, logger: logger}
}

// RegisterRoutes mounts the cart routes.
func (h *CartHandler) RegisterRoutes(r *router.Router) {
	r.Get("/api/cart", h.View)
	r.Post("/api/cart/items", h.AddItem)
	r.Patch("/api/cart/items/{productId}", h.UpdateItem)
	r.Delete("/api/cart/items/{productId}", h.RemoveItem)
	r.Delete("/api/cart", h.Clear)
	r.Get("/api/cart/quote", h.Quote)
}

// cartResponse is the envelope for every cart state response. Warning is
// set when the mutation succeeded but the snapshot could not be persisted.
type cartResponse struct {
	Cart    domain.CartSnapshot `json:"cart"`
	Warning string              `json:"warning,omitempty"`
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, snap *domain.CartSnapshot, err error) {
	if err != nil {
		// A persistence failure still carries the committed snapshot; the
		// shopper's cart is fine, only durability suffered.
		if snap != nil && domain.IsCode(err, domain.EPERSISTENCE) {
			h.logger.Warn("returning unpersisted cart state", "error", err)
			handler.RespondJSON(w, http.StatusOK, cartResponse{
				Cart:    *snap,
				Warning: domain.ErrorMessage(err),
			})
			return
		}
		handler.Error(w, h.logger, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, cartResponse{Cart: *snap})
}

// View handles GET /api/cart.
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	snap := h.carts.Snapshot()
	handler.RespondJSON(w, http.StatusOK, cartResponse{Cart: snap})
}

type addItemRequest struct {
	Product  domain.ProductSnapshot `json:"product"`
	Quantity int                    `json:"quantity"`
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	snap, err := h.carts.AddToCart(r.Context(), req.Product, req.Quantity)
	h.respondCart(w, r, snap, err)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PATCH /api/cart/items/{productId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")

	var req updateItemRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}

	snap, err := h.carts.UpdateQuantity(r.Context(), productID, req.Quantity)
	h.respondCart(w, r, snap, err)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.RemoveFromCart(r.Context(), r.PathValue("productId"))
	h.respondCart(w, r, snap, err)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.ClearCart(r.Context())
	h.respondCart(w, r, snap, err)
}

// Quote handles GET /api/cart/quote?tier=standard&code=WELCOME10&tax_rate=0.0725.
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := domain.QuoteRequest{
		ShippingTier: q.Get("tier"),
		DiscountCode: q.Get("code"),
	}

	if raw := q.Get("tax_rate"); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			handler.Error(w, h.logger, r, domain.Errorf(domain.EINVALID, "handler.quote", "Invalid tax rate"))
			return
		}
		req.TaxRate = rate
	}

	h.defaults.apply(&req)

	quote, err := h.carts.GetQuote(r.Context(), req)
	if err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, quote)
}
