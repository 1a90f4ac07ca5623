package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents an item in the catalogue.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stockQuantity" db:"stock"`
	Category    string          `json:"category" db:"category"`
	ImageURL    *string         `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductRequest is the payload for creating or replacing a product.
type ProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"gt=0,lte=99999999.99"`
	Stock       int             `json:"stockQuantity" validate:"gte=0"`
	Category    string          `json:"category" validate:"required,max=100"`
	ImageURL    *string         `json:"imageUrl,omitempty" validate:"omitempty,url,max=500"`
}

// ProductFilter narrows a catalogue listing.
type ProductFilter struct {
	Category string
	Limit    int
	Offset   int
}

// Normalize trims the name and rounds the price to cents, the precision it is
// stored with. Call it before validating.
func (r *ProductRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Price = r.Price.Round(2)
}

// Apply copies the mutable fields of the request onto the product.
func (r *ProductRequest) Apply(p *Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price.Round(2)
	p.Stock = r.Stock
	p.Category = r.Category
	p.ImageURL = r.ImageURL
}
