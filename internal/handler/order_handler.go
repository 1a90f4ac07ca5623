package handler

import (
	"net/http"

	"shopcart/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// List handles GET /orders for the caller, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	orders, err := h.service.ListByUser(r.Context(), identity.UserID, limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /orders/{id}. Admins may read any order.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	orderID, err := uuidParam(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	order, err := h.service.GetByID(r.Context(), identity.UserID, orderID, identity.IsAdmin())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
