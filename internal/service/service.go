package service

import (
	"context"

	"shopcart/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List retrieves products with pagination and an optional category filter.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create validates and stores a new product.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update validates and replaces the mutable fields of a product.
	Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartService defines operations on a user's shopping cart. Each mutating
// call runs in a single transaction and never touches product stock.
type CartService interface {
	// GetOrCreateCart returns the user's cart, creating an empty one if absent.
	GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error)

	// AddItem adds quantity of a product, merging with an existing line.
	AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*model.CartView, error)

	// UpdateItemQuantity overwrites the quantity of an existing line.
	UpdateItemQuantity(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*model.CartView, error)

	// RemoveItem deletes the line for a product.
	RemoveItem(ctx context.Context, userID string, productID uuid.UUID) error

	// Clear deletes every line in the cart. Clearing an empty cart succeeds.
	Clear(ctx context.Context, userID string) error

	// GetCartView returns the cart joined with current product data and totals.
	GetCartView(ctx context.Context, userID string) (*model.CartView, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrderFromCart converts the user's cart into an order, decrements
	// stock and empties the cart. Repeated calls with the same payment
	// reference return the first order.
	CreateOrderFromCart(ctx context.Context, userID string, details model.OrderDetails) (*model.Order, error)

	// GetByID retrieves an order visible to the requester. Non-admins only see
	// their own orders.
	GetByID(ctx context.Context, userID string, id uuid.UUID, isAdmin bool) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// MarkStatusByPaymentReference moves the order created for a payment to status.
	MarkStatusByPaymentReference(ctx context.Context, reference string, status model.OrderStatus) (*model.Order, error)
}

// CheckoutService defines the hosted payment flow.
type CheckoutService interface {
	// CreateSession starts a hosted checkout for the user's cart.
	CreateSession(ctx context.Context, userID, email string) (*model.CheckoutSessionResponse, error)

	// GetSession returns a session owned by the user.
	GetSession(ctx context.Context, userID, sessionID string) (*model.CheckoutSessionDetails, error)

	// HandleWebhook verifies and applies a payment provider event.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	// DemoCheckout creates a completed order without a payment provider.
	DemoCheckout(ctx context.Context, userID, email string) (*model.Order, error)
}
