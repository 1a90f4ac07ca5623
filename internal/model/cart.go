package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxItemQuantity caps the quantity accepted for a single cart line.
const MaxItemQuantity = 100

// Cart is the per-user shopping cart. A user owns at most one.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartItem is a single product line in a cart.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CartID    uuid.UUID `json:"-" db:"cart_id"`
	ProductID uuid.UUID `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartLine joins a cart item with the current state of its product.
type CartLine struct {
	ItemID          uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductPrice    decimal.Decimal `json:"productPrice"`
	ProductImageURL *string         `json:"productImageUrl,omitempty"`
	ProductCategory string          `json:"productCategory"`
	ProductStock    int             `json:"-"`
	Description     string          `json:"-"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
}

// CartView is the read model returned to clients. Totals use current prices.
type CartView struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	Items       []CartLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalItems  int             `json:"totalItems"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewCartView builds a view from the cart and its lines and computes the totals.
func NewCartView(cart *Cart, lines []CartLine) *CartView {
	view := &CartView{
		ID:          cart.ID,
		UserID:      cart.UserID,
		Items:       make([]CartLine, 0, len(lines)),
		TotalAmount: decimal.Zero,
		UpdatedAt:   cart.UpdatedAt,
	}
	for _, line := range lines {
		line.TotalPrice = line.ProductPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.TotalAmount = view.TotalAmount.Add(line.TotalPrice)
		view.TotalItems += line.Quantity
		view.Items = append(view.Items, line)
	}
	return view
}

// AddCartItemRequest is the payload for POST /cart/items.
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1,max=100"`
}

// UpdateCartItemRequest is the payload for PUT /cart/items/{productId}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=100"`
}
