package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"shopcart/internal/config"
	"shopcart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

var allowedShippingCountries = []string{"US", "CA"}

// stripeProvider implements Provider on Stripe Checkout.
type stripeProvider struct {
	api    *client.API
	cfg    config.StripeConfig
	logger zerolog.Logger
}

// NewStripeProvider creates a Stripe-backed Provider.
func NewStripeProvider(cfg config.StripeConfig, logger zerolog.Logger) Provider {
	return newStripeProvider(cfg, "", logger)
}

// newStripeProvider allows tests to point the API backend at a local server.
func newStripeProvider(cfg config.StripeConfig, apiURL string, logger zerolog.Logger) *stripeProvider {
	logger = logger.With().Str("component", "stripe").Logger()

	backendCfg := &stripe.BackendConfig{
		LeveledLogger:     &stripeLogger{logger: logger},
		MaxNetworkRetries: stripe.Int64(2),
	}
	if apiURL != "" {
		backendCfg.URL = stripe.String(apiURL)
		backendCfg.MaxNetworkRetries = stripe.Int64(0)
	}

	api := client.New(cfg.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	})

	return &stripeProvider{api: api, cfg: cfg, logger: logger}
}

// CreateSession creates a payment-mode Checkout Session.
func (p *stripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = p.cfg.SuccessURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = p.cfg.CancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String("payment"),
		SuccessURL:               stripe.String(successURL),
		CancelURL:                stripe.String(cancelURL),
		ClientReferenceID:        stripe.String(req.ClientReference),
		BillingAddressCollection: stripe.String("required"),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(allowedShippingCountries),
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			product.Images = stripe.StringSlice([]string{item.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(p.cfg.Currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: product,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params.AddMetadata("user_id", req.ClientReference)
	params.Context = ctx

	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	p.logger.Info().
		Str("session_id", s.ID).
		Str("user_id", req.ClientReference).
		Int("line_items", len(req.LineItems)).
		Msg("checkout session created")

	return toSession(s), nil
}

// GetSession retrieves a Checkout Session by id.
func (p *stripeProvider) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) &&
			(stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing) {
			return nil, model.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	return toSession(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *stripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		p.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return nil, model.ErrInvalidSignature
	}

	out := &Event{ID: ev.ID, Type: EventType(ev.Type)}
	if ev.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventCheckoutCompleted, EventAsyncPaymentSucceeded, EventAsyncPaymentFailed:
		if err := decodeCheckoutSession(ev.Data.Raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", out.Type, err)
		}
	case EventPaymentIntentFailed:
		if err := decodePaymentIntent(ev.Data.Raw, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", out.Type, err)
		}
	}

	return out, nil
}

func decodeCheckoutSession(raw json.RawMessage, out *Event) error {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}

	// shipping_details moved between API versions; read it directly.
	var shipping struct {
		ShippingDetails *struct {
			Address *stripe.Address `json:"address"`
		} `json:"shipping_details"`
	}
	if err := json.Unmarshal(raw, &shipping); err != nil {
		return err
	}

	session := toSession(&s)
	out.SessionID = session.ID
	out.ClientReference = session.ClientReference
	out.CustomerEmail = session.CustomerEmail
	out.PaymentStatus = session.PaymentStatus
	out.AmountTotal = session.AmountTotal
	out.Currency = session.Currency

	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil {
		out.BillingAddress = FormatAddress(fromStripeAddress(s.CustomerDetails.Address))
	}
	if shipping.ShippingDetails != nil {
		out.ShippingAddress = FormatAddress(fromStripeAddress(shipping.ShippingDetails.Address))
	}
	return nil
}

func decodePaymentIntent(raw json.RawMessage, out *Event) error {
	var pi struct {
		ID               string `json:"id"`
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &pi); err != nil {
		return err
	}

	out.PaymentIntentID = pi.ID
	out.ClientReference = pi.Metadata["user_id"]
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Message
	}
	return nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:              s.ID,
		URL:             s.URL,
		PaymentStatus:   string(s.PaymentStatus),
		AmountTotal:     s.AmountTotal,
		Currency:        string(s.Currency),
		CustomerEmail:   s.CustomerEmail,
		ClientReference: s.ClientReferenceID,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

func fromStripeAddress(a *stripe.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// stripeLogger routes stripe-go client logs through zerolog.
type stripeLogger struct {
	logger zerolog.Logger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }
func (l *stripeLogger) Infof(format string, v ...interface{})  { l.logger.Debug().Msgf(format, v...) }
func (l *stripeLogger) Warnf(format string, v ...interface{})  { l.logger.Warn().Msgf(format, v...) }
func (l *stripeLogger) Errorf(format string, v ...interface{}) { l.logger.Error().Msgf(format, v...) }
