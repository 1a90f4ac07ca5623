package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartView_Totals(t *testing.T) {
	cart := &Cart{ID: uuid.New(), UserID: "user-1", UpdatedAt: time.Now()}
	lines := []CartLine{
		{ProductID: uuid.New(), ProductName: "A", ProductPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: uuid.New(), ProductName: "B", ProductPrice: decimal.RequireFromString("5.50"), Quantity: 1},
	}

	view := NewCartView(cart, lines)

	assert.Equal(t, cart.ID, view.ID)
	assert.Len(t, view.Items, 2)
	assert.True(t, decimal.RequireFromString("20.00").Equal(view.Items[0].TotalPrice))
	assert.True(t, decimal.RequireFromString("5.50").Equal(view.Items[1].TotalPrice))
	assert.True(t, decimal.RequireFromString("25.50").Equal(view.TotalAmount))
	assert.Equal(t, 3, view.TotalItems)
}

func TestNewCartView_Empty(t *testing.T) {
	view := NewCartView(&Cart{ID: uuid.New(), UserID: "user-1"}, nil)

	assert.NotNil(t, view.Items)
	assert.Empty(t, view.Items)
	assert.True(t, view.TotalAmount.IsZero())
	assert.Equal(t, 0, view.TotalItems)
}

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewInsufficientStockError("Widget", 5, 2)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrEmptyCart))
	assert.Equal(t, "Insufficient stock for Widget: requested 5, available 2", err.Error())

	wrapped := fmt.Errorf("add item: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInsufficientStock))
	assert.Equal(t, ErrCodeInsufficientStock, ErrorCode(wrapped))
}

func TestErrorCode_NonDomainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternalError, ErrorCode(errors.New("boom")))
	assert.Equal(t, ErrCodeEmptyCart, ErrorCode(ErrEmptyCart))
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCompleted.Valid())
	assert.True(t, OrderStatusFailed.Valid())
	assert.False(t, OrderStatus("Shipped").Valid())
}

func TestProductRequest_ApplyRoundsPrice(t *testing.T) {
	req := ProductRequest{Name: "Lamp", Price: decimal.RequireFromString("19.999"), Stock: 3, Category: "Home"}
	var p Product

	req.Apply(&p)

	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "20", p.Price.String())
	assert.Equal(t, 3, p.Stock)
}

func TestMoneyJSON_TwoFractionDigits(t *testing.T) {
	cart := &Cart{ID: uuid.New(), UserID: "user-1"}
	view := NewCartView(cart, []CartLine{
		{ProductID: uuid.New(), ProductName: "A", ProductPrice: decimal.RequireFromString("10"), ProductStock: 5, Quantity: 2},
		{ProductID: uuid.New(), ProductName: "B", ProductPrice: decimal.RequireFromString("5.5"), ProductStock: 1, Quantity: 1},
	})

	raw, err := json.Marshal(view)
	require.NoError(t, err)

	var got struct {
		TotalAmount string `json:"totalAmount"`
		Items       []struct {
			ProductName  string `json:"productName"`
			ProductPrice string `json:"productPrice"`
			TotalPrice   string `json:"totalPrice"`
			ProductStock *int   `json:"ProductStock"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "25.50", got.TotalAmount)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "10.00", got.Items[0].ProductPrice)
	assert.Equal(t, "20.00", got.Items[0].TotalPrice)
	assert.Equal(t, "5.50", got.Items[1].ProductPrice)
	assert.Nil(t, got.Items[0].ProductStock)

	order := Order{
		ID:          uuid.New(),
		TotalAmount: decimal.RequireFromString("25.5"),
		Status:      OrderStatusCompleted,
		Items:       []OrderItem{{ID: uuid.New(), ProductName: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("5.5")}},
	}
	raw, err = json.Marshal(order)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"totalAmount":"25.50"`)
	assert.Contains(t, string(raw), `"unitPrice":"5.50"`)
	assert.Contains(t, string(raw), `"status":"Completed"`)

	product := Product{ID: uuid.New(), Name: "Mug", Price: decimal.RequireFromString("10"), Stock: 3}
	raw, err = json.Marshal(&product)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":"10.00"`)
	assert.Contains(t, string(raw), `"stockQuantity":3`)

	// The fixed form still decodes back to the same amount.
	var decoded Product
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, product.Price.Equal(decoded.Price))
}
