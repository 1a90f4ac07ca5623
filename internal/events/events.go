// Package events publishes order lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopcart/internal/model"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Event types.
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the message body published for order lifecycle changes.
type OrderEvent struct {
	Type             string            `json:"type"`
	OrderID          uuid.UUID         `json:"orderId"`
	UserID           string            `json:"userId"`
	Status           model.OrderStatus `json:"status"`
	TotalAmount      decimal.Decimal   `json:"totalAmount"`
	ItemCount        int               `json:"itemCount"`
	PaymentReference string            `json:"paymentReference,omitempty"`
	OccurredAt       time.Time         `json:"occurredAt"`
}

// NewOrderEvent builds an event of the given type for order.
func NewOrderEvent(eventType string, order *model.Order) OrderEvent {
	ev := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
	for _, item := range order.Items {
		ev.ItemCount += item.Quantity
	}
	if order.PaymentReference != nil {
		ev.PaymentReference = *order.PaymentReference
	}
	return ev
}

// Publisher delivers order events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close()
}

// nopPublisher discards events.
type nopPublisher struct{}

// NewNopPublisher returns a Publisher that discards events.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (nopPublisher) Close()                                    {}

// natsConn is the part of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// natsPublisher publishes events as JSON on <prefix>.orders.<action>.
type natsPublisher struct {
	conn   natsConn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher connects to url and returns a Publisher.
func NewNATSPublisher(url, subjectPrefix string, logger zerolog.Logger) (Publisher, error) {
	logger = logger.With().Str("component", "nats-publisher").Logger()

	nc, err := nats.Connect(url,
		nats.Name("shopcart"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")

	return newNATSPublisher(nc, subjectPrefix, logger), nil
}

func newNATSPublisher(conn natsConn, prefix string, logger zerolog.Logger) *natsPublisher {
	return &natsPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject an event type is published on.
func (p *natsPublisher) Subject(eventType string) string {
	switch eventType {
	case TypeOrderCreated:
		return p.prefix + ".orders.created"
	case TypeOrderStatusChanged:
		return p.prefix + ".orders.status_changed"
	}
	return p.prefix + ".orders.other"
}

// Publish encodes the event and hands it to the NATS client.
func (p *natsPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := p.Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("order_id", event.OrderID.String()).
		Msg("order event published")

	return nil
}

// Close drains pending messages and closes the connection.
func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to drain NATS connection")
	}
}
