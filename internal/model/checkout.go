package model

// CheckoutSessionResponse is returned by POST /checkout/create-session.
type CheckoutSessionResponse struct {
	SessionID      string `json:"sessionId"`
	RedirectURL    string `json:"redirectUrl"`
	PublishableKey string `json:"publishableKey,omitempty"`
}

// CheckoutSessionDetails is returned by GET /checkout/session/{id}.
type CheckoutSessionDetails struct {
	SessionID     string `json:"sessionId"`
	PaymentStatus string `json:"paymentStatus"`
	AmountTotal   int64  `json:"amountTotal"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}
