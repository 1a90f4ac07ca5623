package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeProductExists      = "PRODUCT_EXISTS"
	ErrCodeProductInUse       = "PRODUCT_IN_USE"
	ErrCodeCartItemNotFound   = "CART_ITEM_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeInvalidSignature   = "INVALID_SIGNATURE"
	ErrCodeDuplicateOrder     = "DUPLICATE_ORDER"
	ErrCodePaymentUnavailable = "PAYMENT_UNAVAILABLE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors carrying a formatted
// message still compare equal to the sentinel of the same kind.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInsufficientStockError reports a request for more units than are in stock.
func NewInsufficientStockError(productName string, requested, available int) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock,
		fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", productName, requested, available))
}

// NewValidationError reports invalid input, keyed by field name.
func NewValidationError(fields map[string]string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	}
}

// ErrorCode returns the code of the first DomainError in err's chain, or
// ErrCodeInternalError.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain errors
var (
	ErrInvalidQuantity    = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be between 1 and 100")
	ErrProductNotFound    = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrProductExists      = NewDomainError(ErrCodeProductExists, "A product with this name already exists")
	ErrProductInUse       = NewDomainError(ErrCodeProductInUse, "Product is referenced by existing orders")
	ErrCartItemNotFound   = NewDomainError(ErrCodeCartItemNotFound, "Item not found in cart")
	ErrOrderNotFound      = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrSessionNotFound    = NewDomainError(ErrCodeSessionNotFound, "Checkout session not found")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInvalidSignature   = NewDomainError(ErrCodeInvalidSignature, "Invalid webhook signature")
	ErrDuplicateOrder     = NewDomainError(ErrCodeDuplicateOrder, "Order already exists for this payment")
	ErrPaymentUnavailable = NewDomainError(ErrCodePaymentUnavailable, "Payment provider is not configured")
	ErrValidation         = NewDomainError(ErrCodeValidation, "Request validation failed")
)
