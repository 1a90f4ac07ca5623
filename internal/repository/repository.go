package repository

import (
	"context"
	"time"

	"shopcart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Methods that accept a pgx.Tx run inside that transaction. A nil tx runs the
// statement directly on the pool.

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List retrieves products matching the filter, ordered by name.
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces the mutable fields of an existing product.
	Update(ctx context.Context, product *model.Product) error

	// Delete removes a product.
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the number of products in the catalogue.
	Count(ctx context.Context) (int, error)

	// CreateBatch inserts products, skipping names that already exist.
	// Returns the number of rows inserted.
	CreateBatch(ctx context.Context, products []model.Product) (int, error)

	// DecrementStock subtracts quantity from the product's stock, never going
	// below zero, and returns the stock level before the update.
	DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (int, error)
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetByUserID retrieves the user's cart. Returns nil when absent.
	GetByUserID(ctx context.Context, userID string) (*model.Cart, error)

	// LockByUserID retrieves the user's cart and locks its row until tx ends.
	LockByUserID(ctx context.Context, tx pgx.Tx, userID string) (*model.Cart, error)

	// GetOrCreate returns the user's cart, inserting an empty one when absent.
	// The boolean reports whether the cart was created by this call.
	GetOrCreate(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (*model.Cart, bool, error)

	// GetItem retrieves the cart line for a product. Returns nil when absent.
	GetItem(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID) (*model.CartItem, error)

	// SaveItem inserts the item or overwrites the quantity of the existing
	// line for the same (cart, product) pair.
	SaveItem(ctx context.Context, tx pgx.Tx, item *model.CartItem) error

	// DeleteItem removes the cart line for a product.
	DeleteItem(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID) error

	// ClearItems removes every line from the cart and returns how many were removed.
	ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (int64, error)

	// Touch stamps the cart's updated_at.
	Touch(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, at time.Time) error

	// ListLines returns the cart's items joined with their current products.
	ListLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) ([]model.CartLine, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	// Returns model.ErrDuplicateOrder when the payment reference is taken.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByPaymentReference retrieves the order created for a payment session.
	GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error)

	// ListByUser retrieves a user's orders, newest first, with their items.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Order, error)

	// UpdateStatus sets the status of an order.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, at time.Time) error
}
