package storefront

import (
	"log/slog"
	"net/http"

	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/handler"
	"github.com/gupfee/greenhaus/internal/router"
	"github.com/gupfee/greenhaus/internal/shipping"
)

// ShippingHandler lists the available shipping options priced for the
// current cart, so checkout screens can render the tier picker.
type ShippingHandler struct {
	carts    domain.CartController
	resolver shipping.Resolver
	logger   *slog.Logger
}

// NewShippingHandler creates a new shipping options handler.
func NewShippingHandler(carts domain.CartController, resolver shipping.Resolver, logger *slog.Logger) *ShippingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShippingHandler{carts: carts, resolver: resolver, logger: logger}
}

// RegisterRoutes mounts the shipping routes.
func (h *ShippingHandler) RegisterRoutes(r *router.Router) {
	r.Get("/api/cart/shipping-options", h.Options)
}

// Options handles GET /api/cart/shipping-options.
func (h *ShippingHandler) Options(w http.ResponseWriter, r *http.Request) {
	snap := h.carts.Snapshot()

	options, err := h.resolver.Tiers(r.Context(), snap.Subtotal)
	if err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, struct {
		Options []domain.ShippingOption `json:"options"`
	}{Options: options})
}
