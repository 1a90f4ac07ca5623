package handler

import (
	"net/http"

	"shopcart/internal/model"
	"shopcart/internal/service"
	"shopcart/internal/validation"

	"github.com/rs/zerolog"
)

// CartHandler handles the caller's shopping cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /cart. The cart is created on first access.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.service.GetCartView(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	view, err := h.service.AddItem(r.Context(), identity.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateItem handles PUT /cart/items/{productId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	var req model.UpdateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	view, err := h.service.UpdateItemQuantity(r.Context(), identity.UserID, productID, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	productID, err := uuidParam(r, "productId")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := h.service.RemoveItem(r.Context(), identity.UserID, productID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Clear(r.Context(), identity.UserID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
