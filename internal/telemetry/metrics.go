// Package telemetry holds business metrics and error reporting.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the cart and checkout funnel.
type BusinessMetrics struct {
	// Cart
	CartsCreated   prometheus.Counter
	CartItemsAdded prometheus.Counter
	CartsCleared   prometheus.Counter

	// Checkout and orders
	CheckoutSessionsCreated prometheus.Counter
	OrdersCreated           *prometheus.CounterVec
	OrderValue              prometheus.Histogram
	OrderReplays            prometheus.Counter
	StockClamped            prometheus.Counter

	// Webhooks
	WebhookReceived *prometheus.CounterVec
	WebhookFailed   *prometheus.CounterVec
}

// NewBusinessMetrics creates the business metrics and registers them on reg.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)

	return &BusinessMetrics{
		CartsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_created_total",
			Help:      "Total number of carts created",
		}),
		CartItemsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Total number of add-to-cart operations",
		}),
		CartsCleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_cleared_total",
			Help:      "Total number of explicit cart clears",
		}),
		CheckoutSessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_created_total",
			Help:      "Total number of hosted checkout sessions created",
		}),
		OrdersCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created",
		}, []string{"status", "source"}),
		OrderValue: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Order total amount",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		OrderReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_replays_total",
			Help:      "Order creations answered with an existing order for the same payment",
		}),
		StockClamped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_clamped_total",
			Help:      "Stock decrements that would have gone negative and were clamped to zero",
		}),
		WebhookReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_received_total",
			Help:      "Total number of payment webhooks received",
		}, []string{"event_type"}),
		WebhookFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_failed_total",
			Help:      "Total number of payment webhooks that failed",
		}, []string{"reason"}),
	}
}

// NopMetrics returns metrics registered on a private registry, for tests and
// tools that do not expose /metrics.
func NopMetrics() *BusinessMetrics {
	return NewBusinessMetrics("shopcart", prometheus.NewRegistry())
}
