package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shopcart/internal/auth"
	"shopcart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps err to an HTTP status through its domain code.
// Errors without a known code become a 500 with a generic message.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) || statusForCode(de.Code) == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("unexpected error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "An unexpected error occurred",
		})
		return
	}

	status := statusForCode(de.Code)
	logger.Warn().Str("code", de.Code).Str("error", de.Message).Int("status", status).Msg("request rejected")
	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message, Fields: de.Fields})
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound,
		model.ErrCodeCartItemNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidJSON,
		model.ErrCodeValidation,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInsufficientStock,
		model.ErrCodeEmptyCart,
		model.ErrCodeInvalidSignature:
		return http.StatusBadRequest
	case model.ErrCodeProductExists,
		model.ErrCodeProductInUse,
		model.ErrCodeDuplicateOrder:
		return http.StatusConflict
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodePaymentUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid request body")
	}
	return nil
}

// uuidParam parses the named chi URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewValidationError(map[string]string{name: "must be a valid UUID"})
	}
	return id, nil
}

// pageParams reads limit and offset from the query string. Missing values
// are zero and left for the service to normalise.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	fields := map[string]string{}
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			fields["limit"] = "must be an integer"
		}
	}
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			fields["offset"] = "must be an integer"
		}
	}
	if len(fields) > 0 {
		return 0, 0, model.NewValidationError(fields)
	}
	return limit, offset, nil
}

// requireIdentity returns the caller set by auth.RequireAuth, writing a 401
// when the route was mounted without it.
func requireIdentity(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "Authentication required", logger)
		return nil, false
	}
	return identity, true
}
