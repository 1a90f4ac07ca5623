package validation

import (
	"errors"
	"strings"
	"testing"

	"shopcart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestStruct_ProductRequest(t *testing.T) {
	valid := model.ProductRequest{
		Name:     "Desk Lamp",
		Price:    decimal.RequireFromString("24.99"),
		Stock:    10,
		Category: "Home",
		ImageURL: strPtr("https://cdn.example.com/lamp.png"),
	}

	tests := []struct {
		name        string
		mutate      func(r *model.ProductRequest)
		expectField string
	}{
		{name: "valid request", mutate: func(r *model.ProductRequest) {}},
		{name: "missing name", mutate: func(r *model.ProductRequest) { r.Name = "" }, expectField: "name"},
		{name: "name too long", mutate: func(r *model.ProductRequest) { r.Name = strings.Repeat("x", 201) }, expectField: "name"},
		{name: "description too long", mutate: func(r *model.ProductRequest) { r.Description = strings.Repeat("x", 1001) }, expectField: "description"},
		{name: "zero price", mutate: func(r *model.ProductRequest) { r.Price = decimal.Zero }, expectField: "price"},
		{name: "negative price", mutate: func(r *model.ProductRequest) { r.Price = decimal.RequireFromString("-1") }, expectField: "price"},
		{name: "negative stock", mutate: func(r *model.ProductRequest) { r.Stock = -1 }, expectField: "stockQuantity"},
		{name: "missing category", mutate: func(r *model.ProductRequest) { r.Category = "" }, expectField: "category"},
		{name: "bad image url", mutate: func(r *model.ProductRequest) { r.ImageURL = strPtr("not a url") }, expectField: "imageUrl"},
		{name: "nil image url allowed", mutate: func(r *model.ProductRequest) { r.ImageURL = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := Struct(&req)

			if tt.expectField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrValidation))

			var de *model.DomainError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Fields, tt.expectField)
		})
	}
}

func TestStruct_AddCartItemRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         model.AddCartItemRequest
		expectField string
	}{
		{name: "valid", req: model.AddCartItemRequest{ProductID: uuid.New(), Quantity: 1}},
		{name: "max quantity", req: model.AddCartItemRequest{ProductID: uuid.New(), Quantity: 100}},
		{name: "nil product id", req: model.AddCartItemRequest{Quantity: 1}, expectField: "productId"},
		{name: "zero quantity", req: model.AddCartItemRequest{ProductID: uuid.New(), Quantity: 0}, expectField: "quantity"},
		{name: "quantity over cap", req: model.AddCartItemRequest{ProductID: uuid.New(), Quantity: 101}, expectField: "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.req)
			if tt.expectField == "" {
				assert.NoError(t, err)
				return
			}
			var de *model.DomainError
			require.True(t, errors.As(err, &de))
			assert.Contains(t, de.Fields, tt.expectField)
		})
	}
}
