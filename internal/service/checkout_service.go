package service

import (
	"context"
	"errors"
	"fmt"

	"shopcart/internal/model"
	"shopcart/internal/payment"
	"shopcart/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	carts          CartService
	orders         OrderService
	provider       payment.Provider
	publishableKey string
	metrics        *telemetry.BusinessMetrics
	reporter       telemetry.Reporter
	logger         zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts CartService,
	orders OrderService,
	provider payment.Provider,
	publishableKey string,
	metrics *telemetry.BusinessMetrics,
	reporter telemetry.Reporter,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		carts:          carts,
		orders:         orders,
		provider:       provider,
		publishableKey: publishableKey,
		metrics:        metrics,
		reporter:       reporter,
		logger:         logger.With().Str("service", "checkout").Logger(),
	}
}

// CreateSession starts a hosted checkout for the user's cart.
func (s *checkoutService) CreateSession(ctx context.Context, userID, email string) (*model.CheckoutSessionResponse, error) {
	view, err := s.carts.GetCartView(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	req := payment.SessionRequest{
		ClientReference: userID,
		CustomerEmail:   email,
		LineItems:       make([]payment.LineItem, 0, len(view.Items)),
	}
	for _, line := range view.Items {
		if line.Quantity > line.ProductStock {
			return nil, model.NewInsufficientStockError(line.ProductName, line.Quantity, line.ProductStock)
		}

		item := payment.LineItem{
			Name:        line.ProductName,
			Description: line.Description,
			UnitAmount:  payment.ToMinorUnits(line.ProductPrice),
			Quantity:    int64(line.Quantity),
		}
		if line.ProductImageURL != nil {
			item.ImageURL = *line.ProductImageURL
		}
		req.LineItems = append(req.LineItems, item)
	}
	req.IdempotencyKey = payment.IdempotencyKey(view.ID.String(), view.UpdatedAt, req)

	session, err := s.provider.CreateSession(ctx, req)
	if err != nil {
		if !errors.Is(err, model.ErrPaymentUnavailable) {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create checkout session")
			s.reporter.CaptureError(err, map[string]string{"operation": "create_checkout_session"})
		}
		return nil, err
	}

	s.metrics.CheckoutSessionsCreated.Inc()

	return &model.CheckoutSessionResponse{
		SessionID:      session.ID,
		RedirectURL:    session.URL,
		PublishableKey: s.publishableKey,
	}, nil
}

// GetSession returns a session owned by the user.
func (s *checkoutService) GetSession(ctx context.Context, userID, sessionID string) (*model.CheckoutSessionDetails, error) {
	session, err := s.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.ClientReference != userID {
		s.logger.Warn().
			Str("user_id", userID).
			Str("session_id", sessionID).
			Msg("session requested by non-owner")
		return nil, model.ErrSessionNotFound
	}

	return &model.CheckoutSessionDetails{
		SessionID:     session.ID,
		PaymentStatus: session.PaymentStatus,
		AmountTotal:   session.AmountTotal,
		Currency:      session.Currency,
		CustomerEmail: session.CustomerEmail,
	}, nil
}

// HandleWebhook verifies and applies a payment provider event. A returned
// error other than a signature failure asks the provider to retry.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		reason := "decode"
		switch {
		case errors.Is(err, model.ErrInvalidSignature):
			reason = "invalid_signature"
		case errors.Is(err, model.ErrPaymentUnavailable):
			reason = "unavailable"
		}
		s.metrics.WebhookFailed.WithLabelValues(reason).Inc()
		return err
	}

	s.metrics.WebhookReceived.WithLabelValues(string(ev.Type)).Inc()
	logger := s.logger.With().Str("event_id", ev.ID).Str("event_type", string(ev.Type)).Logger()

	switch ev.Type {
	case payment.EventCheckoutCompleted:
		status := model.OrderStatusPending
		if ev.Paid() {
			status = model.OrderStatusCompleted
		}
		err = s.createOrderForEvent(ctx, ev, status, logger)

	case payment.EventAsyncPaymentSucceeded:
		_, err = s.orders.MarkStatusByPaymentReference(ctx, ev.SessionID, model.OrderStatusCompleted)
		if errors.Is(err, model.ErrOrderNotFound) {
			err = s.createOrderForEvent(ctx, ev, model.OrderStatusCompleted, logger)
		}

	case payment.EventAsyncPaymentFailed:
		_, err = s.orders.MarkStatusByPaymentReference(ctx, ev.SessionID, model.OrderStatusFailed)
		if errors.Is(err, model.ErrOrderNotFound) {
			logger.Warn().Str("session_id", ev.SessionID).Msg("async payment failed for unknown order")
			err = nil
		}

	case payment.EventPaymentIntentFailed:
		logger.Warn().
			Str("payment_intent_id", ev.PaymentIntentID).
			Str("user_id", ev.ClientReference).
			Str("reason", ev.FailureMessage).
			Msg("payment failed")

	default:
		logger.Debug().Msg("ignoring webhook event")
	}

	if err != nil {
		s.metrics.WebhookFailed.WithLabelValues("processing").Inc()
		s.reporter.CaptureError(err, map[string]string{
			"event_type": string(ev.Type),
			"event_id":   ev.ID,
		})
		logger.Error().Err(err).Str("session_id", ev.SessionID).Msg("failed to process webhook")
		return fmt.Errorf("failed to process %s: %w", ev.Type, err)
	}

	return nil
}

func (s *checkoutService) createOrderForEvent(ctx context.Context, ev *payment.Event, status model.OrderStatus, logger zerolog.Logger) error {
	if ev.ClientReference == "" {
		// Retrying cannot recover a session created without a user.
		logger.Error().Str("session_id", ev.SessionID).Msg("checkout session has no client reference")
		s.reporter.CaptureError(errors.New("checkout session without client reference"), map[string]string{
			"session_id": ev.SessionID,
		})
		return nil
	}

	order, err := s.orders.CreateOrderFromCart(ctx, ev.ClientReference, model.OrderDetails{
		PaymentReference: strPtr(ev.SessionID),
		PaymentIntentID:  strPtr(ev.PaymentIntentID),
		CustomerEmail:    strPtr(ev.CustomerEmail),
		ShippingAddress:  strPtr(ev.ShippingAddress),
		BillingAddress:   strPtr(ev.BillingAddress),
		Status:           status,
	})
	if errors.Is(err, model.ErrEmptyCart) {
		logger.Warn().
			Str("session_id", ev.SessionID).
			Str("user_id", ev.ClientReference).
			Msg("cart empty when payment completed, no order created")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().
		Str("order_id", order.ID.String()).
		Str("session_id", ev.SessionID).
		Str("status", string(order.Status)).
		Msg("order recorded from webhook")
	return nil
}

// DemoCheckout creates a completed order without a payment provider.
func (s *checkoutService) DemoCheckout(ctx context.Context, userID, email string) (*model.Order, error) {
	reference := DemoReferencePrefix + uuid.NewString()

	return s.orders.CreateOrderFromCart(ctx, userID, model.OrderDetails{
		PaymentReference: &reference,
		CustomerEmail:    strPtr(email),
		Status:           model.OrderStatusCompleted,
	})
}
