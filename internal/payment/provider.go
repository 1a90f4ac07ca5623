// Package payment adapts the hosted checkout provider.
package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"shopcart/internal/model"

	"github.com/shopspring/decimal"
)

// EventType identifies a provider webhook event.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout.session.completed"
	EventAsyncPaymentSucceeded EventType = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    EventType = "checkout.session.async_payment_failed"
	EventPaymentIntentFailed   EventType = "payment_intent.payment_failed"
)

// Checkout session payment statuses.
const (
	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// LineItem is one product line of a checkout session. UnitAmount is in minor
// units.
type LineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64
	Quantity    int64
}

// SessionRequest describes a hosted checkout session to create. Empty URLs
// fall back to the provider's configured defaults.
type SessionRequest struct {
	LineItems       []LineItem
	SuccessURL      string
	CancelURL       string
	CustomerEmail   string
	ClientReference string
	IdempotencyKey  string
}

// Session is a hosted checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	ClientReference string
}

// Event is a verified webhook event reduced to the fields order handling needs.
type Event struct {
	ID              string
	Type            EventType
	SessionID       string
	ClientReference string
	CustomerEmail   string
	PaymentStatus   string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	ShippingAddress string
	BillingAddress  string
	FailureMessage  string
}

// Paid reports whether the session's payment has settled.
func (e *Event) Paid() bool {
	return e.PaymentStatus == PaymentStatusPaid || e.PaymentStatus == PaymentStatusNoPaymentRequired
}

// Provider creates checkout sessions and verifies webhooks.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// disabledProvider is used when no provider credentials are configured.
type disabledProvider struct{}

// NewDisabledProvider returns a Provider that rejects every call with
// model.ErrPaymentUnavailable.
func NewDisabledProvider() Provider {
	return disabledProvider{}
}

func (disabledProvider) CreateSession(context.Context, SessionRequest) (*Session, error) {
	return nil, model.ErrPaymentUnavailable
}

func (disabledProvider) GetSession(context.Context, string) (*Session, error) {
	return nil, model.ErrPaymentUnavailable
}

func (disabledProvider) ParseWebhook([]byte, string) (*Event, error) {
	return nil, model.ErrPaymentUnavailable
}

// ToMinorUnits converts a two-decimal amount into cents.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// IdempotencyKey derives the provider idempotency key for one version of a
// cart. Retried submissions of an unchanged cart reuse one session; any cart
// change, including the order that empties it, moves cartVersion and yields a
// new key.
func IdempotencyKey(cartID string, cartVersion time.Time, req SessionRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|", cartID, cartVersion.UTC().UnixMicro(), req.ClientReference, req.CustomerEmail)
	for _, item := range req.LineItems {
		fmt.Fprintf(h, "%s:%d:%d|", item.Name, item.UnitAmount, item.Quantity)
	}
	return "checkout-" + hex.EncodeToString(h.Sum(nil))[:32]
}

// Address holds postal address parts as reported by the provider.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// FormatAddress renders an address as "Line1, [Line2, ]City, State PostalCode, Country".
// A nil or empty address yields "".
func FormatAddress(a *Address) string {
	if a == nil || (a.Line1 == "" && a.City == "" && a.Country == "") {
		return ""
	}

	parts := make([]string, 0, 5)
	if a.Line1 != "" {
		parts = append(parts, a.Line1)
	}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	if region := strings.TrimSpace(a.State + " " + a.PostalCode); region != "" {
		parts = append(parts, region)
	}
	if a.Country != "" {
		parts = append(parts, a.Country)
	}
	return strings.Join(parts, ", ")
}
