package storefront

import (
	"log/slog"
	"net/http"

	"github.com/gupfee/greenhaus/internal/handler"
	"github.com/gupfee/greenhaus/internal/router"
	"github.com/gupfee/greenhaus/internal/service"
)

// CheckoutHandler handles order placement.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	defaults QuoteDefaults
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService, defaults QuoteDefaults, logger *slog.Logger) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{checkout: checkout, defaults: defaults, logger: logger}
}

// RegisterRoutes mounts the checkout routes.
func (h *CheckoutHandler) RegisterRoutes(r *router.Router) {
	r.Post("/api/checkout", h.Submit)
}

// Submit handles POST /api/checkout.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}

	h.defaults.apply(&req.Quote)

	result, err := h.checkout.Submit(r.Context(), req)
	if err != nil {
		handler.Error(w, h.logger, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, result)
}
