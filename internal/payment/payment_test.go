package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func testStripeConfig() config.StripeConfig {
	return config.StripeConfig{
		SecretKey:      "sk_test_123",
		PublishableKey: "pk_test_123",
		WebhookSecret:  testWebhookSecret,
		SuccessURL:     "http://localhost:3000/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      "http://localhost:3000/cart",
		Currency:       "usd",
	}
}

func signPayload(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"10.00", 1000},
		{"5.50", 550},
		{"0.01", 1},
		{"19.999", 2000},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestIdempotencyKey(t *testing.T) {
	cartID := "7f9c4a1e-5b2d-4c3e-8f10-2a6b9d0e1c44"
	version := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	req := SessionRequest{
		ClientReference: "user-1",
		CustomerEmail:   "buyer@example.com",
		LineItems:       []LineItem{{Name: "Lamp", UnitAmount: 1000, Quantity: 2}},
	}
	base := IdempotencyKey(cartID, version, req)

	t.Run("Unchanged cart reuses the key", func(t *testing.T) {
		assert.Equal(t, base, IdempotencyKey(cartID, version, req))
	})

	t.Run("Same items after an order get a new key", func(t *testing.T) {
		// Placing the order empties the cart and stamps it; refilling stamps it again.
		afterOrder := version.Add(90 * time.Second)
		assert.NotEqual(t, base, IdempotencyKey(cartID, afterOrder, req))
	})

	t.Run("Different email gets a new key", func(t *testing.T) {
		other := req
		other.CustomerEmail = "someone@example.com"
		assert.NotEqual(t, base, IdempotencyKey(cartID, version, other))
	})

	t.Run("Different quantity gets a new key", func(t *testing.T) {
		changed := req
		changed.LineItems = []LineItem{{Name: "Lamp", UnitAmount: 1000, Quantity: 3}}
		assert.NotEqual(t, base, IdempotencyKey(cartID, version, changed))
	})

	t.Run("Different cart gets a new key", func(t *testing.T) {
		assert.NotEqual(t, base, IdempotencyKey("0d1e2f3a-4b5c-4d6e-9f70-8192a3b4c5d6", version, req))
	})
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name string
		addr *Address
		want string
	}{
		{name: "nil", addr: nil, want: ""},
		{name: "empty", addr: &Address{}, want: ""},
		{
			name: "full",
			addr: &Address{Line1: "1 Main St", Line2: "Apt 4", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"},
			want: "1 Main St, Apt 4, Springfield, IL 62701, US",
		},
		{
			name: "no line2",
			addr: &Address{Line1: "9 Queen St", City: "Toronto", State: "ON", PostalCode: "M5H 2N2", Country: "CA"},
			want: "9 Queen St, Toronto, ON M5H 2N2, CA",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAddress(tt.addr))
		})
	}
}

func TestDisabledProvider(t *testing.T) {
	p := NewDisabledProvider()

	_, err := p.CreateSession(context.Background(), SessionRequest{})
	assert.ErrorIs(t, err, model.ErrPaymentUnavailable)

	_, err = p.GetSession(context.Background(), "cs_1")
	assert.ErrorIs(t, err, model.ErrPaymentUnavailable)

	_, err = p.ParseWebhook([]byte("{}"), "sig")
	assert.ErrorIs(t, err, model.ErrPaymentUnavailable)
}

func TestStripeProvider_CreateSession(t *testing.T) {
	var form map[string][]string
	var idempotencyKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		idempotencyKey = r.Header.Get("Idempotency-Key")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_123",
			"object": "checkout.session",
			"url": "https://checkout.stripe.com/c/pay/cs_test_123",
			"payment_status": "unpaid",
			"amount_total": 2550,
			"currency": "usd",
			"client_reference_id": "user-1"
		}`))
	}))
	defer server.Close()

	p := newStripeProvider(testStripeConfig(), server.URL, zerolog.Nop())

	session, err := p.CreateSession(context.Background(), SessionRequest{
		ClientReference: "user-1",
		CustomerEmail:   "buyer@example.com",
		IdempotencyKey:  "checkout-abc123",
		LineItems: []LineItem{
			{Name: "Product A", UnitAmount: 1000, Quantity: 2, ImageURL: "https://img.example.com/a.png"},
			{Name: "Product B", Description: "Second", UnitAmount: 550, Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", session.URL)
	assert.Equal(t, int64(2550), session.AmountTotal)

	get := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	assert.Equal(t, "payment", get("mode"))
	assert.Equal(t, "user-1", get("client_reference_id"))
	assert.Equal(t, "buyer@example.com", get("customer_email"))
	assert.Equal(t, "required", get("billing_address_collection"))
	assert.Equal(t, "US", get("shipping_address_collection[allowed_countries][0]"))
	assert.Equal(t, "CA", get("shipping_address_collection[allowed_countries][1]"))
	assert.Equal(t, "1000", get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", get("line_items[0][price_data][currency]"))
	assert.Equal(t, "2", get("line_items[0][quantity]"))
	assert.Equal(t, "Product B", get("line_items[1][price_data][product_data][name]"))
	assert.Equal(t, testStripeConfig().SuccessURL, get("success_url"))
	assert.Equal(t, "checkout-abc123", idempotencyKey)
}

func TestStripeProvider_GetSessionNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"type": "invalid_request_error", "code": "resource_missing", "message": "No such checkout.session: cs_missing"}}`))
	}))
	defer server.Close()

	p := newStripeProvider(testStripeConfig(), server.URL, zerolog.Nop())

	_, err := p.GetSession(context.Background(), "cs_missing")

	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func checkoutEventPayload(t *testing.T, eventType, paymentStatus string) []byte {
	t.Helper()

	payload := map[string]interface{}{
		"id":          "evt_123",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  "cs_test_123",
				"object":              "checkout.session",
				"client_reference_id": "user-1",
				"payment_status":      paymentStatus,
				"payment_intent":      "pi_123",
				"amount_total":        2550,
				"currency":            "usd",
				"customer_details": map[string]interface{}{
					"email": "buyer@example.com",
					"address": map[string]interface{}{
						"line1": "1 Main St", "city": "Springfield", "state": "IL",
						"postal_code": "62701", "country": "US",
					},
				},
				"shipping_details": map[string]interface{}{
					"address": map[string]interface{}{
						"line1": "9 Queen St", "line2": "Unit 2", "city": "Toronto", "state": "ON",
						"postal_code": "M5H 2N2", "country": "CA",
					},
				},
			},
		},
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestStripeProvider_ParseWebhook(t *testing.T) {
	p := newStripeProvider(testStripeConfig(), "", zerolog.Nop())

	t.Run("checkout completed", func(t *testing.T) {
		payload := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusPaid)

		ev, err := p.ParseWebhook(payload, signPayload(payload, testWebhookSecret))

		require.NoError(t, err)
		assert.Equal(t, EventCheckoutCompleted, ev.Type)
		assert.Equal(t, "cs_test_123", ev.SessionID)
		assert.Equal(t, "user-1", ev.ClientReference)
		assert.Equal(t, "buyer@example.com", ev.CustomerEmail)
		assert.Equal(t, "pi_123", ev.PaymentIntentID)
		assert.Equal(t, "1 Main St, Springfield, IL 62701, US", ev.BillingAddress)
		assert.Equal(t, "9 Queen St, Unit 2, Toronto, ON M5H 2N2, CA", ev.ShippingAddress)
		assert.True(t, ev.Paid())
	})

	t.Run("unpaid session", func(t *testing.T) {
		payload := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusUnpaid)

		ev, err := p.ParseWebhook(payload, signPayload(payload, testWebhookSecret))

		require.NoError(t, err)
		assert.False(t, ev.Paid())
	})

	t.Run("payment intent failed", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_9","object":"payment_intent","metadata":{"user_id":"user-7"},"last_payment_error":{"message":"Your card was declined."}}}}`)

		ev, err := p.ParseWebhook(payload, signPayload(payload, testWebhookSecret))

		require.NoError(t, err)
		assert.Equal(t, EventPaymentIntentFailed, ev.Type)
		assert.Equal(t, "pi_9", ev.PaymentIntentID)
		assert.Equal(t, "user-7", ev.ClientReference)
		assert.Equal(t, "Your card was declined.", ev.FailureMessage)
	})

	t.Run("unhandled type", func(t *testing.T) {
		payload := []byte(`{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

		ev, err := p.ParseWebhook(payload, signPayload(payload, testWebhookSecret))

		require.NoError(t, err)
		assert.Equal(t, EventType("customer.created"), ev.Type)
		assert.Empty(t, ev.SessionID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusPaid)

		_, err := p.ParseWebhook(payload, signPayload(payload, "whsec_other"))

		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		payload := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusPaid)

		_, err := p.ParseWebhook(payload, "")

		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		payload := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusPaid)
		header := signPayload(payload, testWebhookSecret)
		tampered := checkoutEventPayload(t, string(EventCheckoutCompleted), PaymentStatusNoPaymentRequired)

		_, err := p.ParseWebhook(tampered, header)

		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})
}
