package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"shopcart/internal/model"
	"shopcart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxWebhookBytes bounds provider webhook payloads.
const maxWebhookBytes = 65536

// CheckoutHandler handles hosted checkout, demo checkout and payment webhooks.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// CreateSession handles POST /checkout/create-session.
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.CreateSession(r.Context(), identity.UserID, identity.Email)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /checkout/session/{id}.
func (h *CheckoutHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))
	if sessionID == "" {
		writeDomainError(w, model.ErrSessionNotFound, h.logger)
		return
	}

	details, err := h.service.GetSession(r.Context(), identity.UserID, sessionID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// Demo handles POST /checkout/demo.
func (h *CheckoutHandler) Demo(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.logger)
	if !ok {
		return
	}

	order, err := h.service.DemoCheckout(r.Context(), identity.UserID, identity.Email)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// Webhook handles POST /webhook/payment. A bad signature is a 400; any other
// failure is a 500 so that the provider retries delivery.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Unable to read webhook body", h.logger)
		return
	}

	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, model.ErrInvalidSignature):
		writeDomainError(w, err, h.logger)
	default:
		h.logger.Error().Err(err).Msg("webhook processing failed")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "Webhook processing failed",
		})
	}
}
