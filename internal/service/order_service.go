package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopcart/internal/events"
	"shopcart/internal/model"
	"shopcart/internal/repository"
	"shopcart/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DemoReferencePrefix marks payment references of orders created without a
// payment provider.
const DemoReferencePrefix = "demo_"

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	publisher   events.Publisher
	metrics     *telemetry.BusinessMetrics
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

func orderSource(reference string) string {
	switch {
	case reference == "":
		return "direct"
	case strings.HasPrefix(reference, DemoReferencePrefix):
		return "demo"
	default:
		return "checkout"
	}
}

// CreateOrderFromCart converts the user's cart into an order.
func (s *orderService) CreateOrderFromCart(ctx context.Context, userID string, details model.OrderDetails) (*model.Order, error) {
	reference := ""
	if details.PaymentReference != nil {
		reference = *details.PaymentReference
	}

	if reference != "" {
		existing, err := s.orderRepo.GetByPaymentReference(ctx, reference)
		if err != nil {
			s.logger.Error().Err(err).Str("payment_reference", reference).Msg("failed to look up order by payment reference")
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		if existing != nil {
			s.metrics.OrderReplays.Inc()
			s.logger.Info().
				Str("order_id", existing.ID.String()).
				Str("payment_reference", reference).
				Msg("order already exists for payment reference")
			return existing, nil
		}
	}

	status := details.Status
	if status == "" {
		status = model.OrderStatusCompleted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	var order *model.Order
	err := runInTx(ctx, s.orderRepo, s.logger, func(tx pgx.Tx) error {
		cart, err := s.cartRepo.LockByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if cart == nil {
			return model.ErrEmptyCart
		}

		lines, err := s.cartRepo.ListLines(ctx, tx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(lines) == 0 {
			return model.ErrEmptyCart
		}

		now := time.Now().UTC()
		order = &model.Order{
			ID:               uuid.New(),
			UserID:           userID,
			OrderDate:        now,
			TotalAmount:      decimal.Zero,
			Status:           status,
			CustomerEmail:    details.CustomerEmail,
			ShippingAddress:  details.ShippingAddress,
			BillingAddress:   details.BillingAddress,
			PaymentReference: details.PaymentReference,
			PaymentIntentID:  details.PaymentIntentID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		order.Items = make([]model.OrderItem, 0, len(lines))
		for _, line := range lines {
			item := model.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.ProductPrice,
			}
			order.Items = append(order.Items, item)
			order.TotalAmount = order.TotalAmount.Add(item.LineTotal())
		}

		if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		for _, item := range order.Items {
			previous, err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock for %s: %w", item.ProductID, err)
			}
			if previous < item.Quantity {
				s.metrics.StockClamped.Inc()
				s.logger.Warn().
					Str("order_id", order.ID.String()).
					Str("product_id", item.ProductID.String()).
					Int("stock", previous).
					Int("ordered", item.Quantity).
					Msg("stock would go negative, clamped to zero")
			}
		}

		if _, err := s.cartRepo.ClearItems(ctx, tx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return s.cartRepo.Touch(ctx, tx, cart.ID, now)
	})

	if reference != "" && (errors.Is(err, model.ErrDuplicateOrder) || errors.Is(err, model.ErrEmptyCart)) {
		// A concurrent call for the same payment committed first, either
		// racing on the insert or emptying the cart while we waited on its lock.
		existing, lookupErr := s.orderRepo.GetByPaymentReference(ctx, reference)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to load existing order: %w", lookupErr)
		}
		if existing != nil {
			s.metrics.OrderReplays.Inc()
			return existing, nil
		}
	}
	if err != nil {
		if model.ErrorCode(err) == model.ErrCodeInternalError {
			s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create order")
		}
		return nil, err
	}

	s.metrics.OrdersCreated.WithLabelValues(string(order.Status), orderSource(reference)).Inc()
	total, _ := order.TotalAmount.Float64()
	s.metrics.OrderValue.Observe(total)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID).
		Str("status", string(order.Status)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	s.publish(ctx, events.TypeOrderCreated, order)

	return order, nil
}

// GetByID retrieves an order visible to the requester.
func (s *orderService) GetByID(ctx context.Context, userID string, id uuid.UUID, isAdmin bool) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || (!isAdmin && order.UserID != userID) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// ListByUser retrieves a user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error) {
	limit, offset = normalisePage(limit, offset)

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// MarkStatusByPaymentReference moves the order created for a payment to status.
func (s *orderService) MarkStatusByPaymentReference(ctx context.Context, reference string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid order status %q", status)
	}

	order, err := s.orderRepo.GetByPaymentReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.Status == status {
		return order, nil
	}

	now := time.Now().UTC()
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, status, now); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order status")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status changed")

	order.Status = status
	order.UpdatedAt = now
	s.publish(ctx, events.TypeOrderStatusChanged, order)

	return order, nil
}

func (s *orderService) publish(ctx context.Context, eventType string, order *model.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.Warn().Err(err).
			Str("order_id", order.ID.String()).
			Str("event_type", eventType).
			Msg("failed to publish order event")
	}
}
