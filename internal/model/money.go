package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Monetary amounts are written as strings with exactly two fraction digits
// ("25.50", not "25.5"). Decoding keeps decimal's default handling, which
// accepts both strings and numbers.

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MarshalJSON writes the price with two fraction digits.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), money(p.Price)})
}

// MarshalJSON writes the line amounts with two fraction digits.
func (l CartLine) MarshalJSON() ([]byte, error) {
	type cartLine CartLine
	return json.Marshal(struct {
		cartLine
		ProductPrice string `json:"productPrice"`
		TotalPrice   string `json:"totalPrice"`
	}{cartLine(l), money(l.ProductPrice), money(l.TotalPrice)})
}

// MarshalJSON writes the cart total with two fraction digits.
func (v CartView) MarshalJSON() ([]byte, error) {
	type cartView CartView
	return json.Marshal(struct {
		cartView
		TotalAmount string `json:"totalAmount"`
	}{cartView(v), money(v.TotalAmount)})
}

// MarshalJSON writes the order total with two fraction digits.
func (o Order) MarshalJSON() ([]byte, error) {
	type order Order
	return json.Marshal(struct {
		order
		TotalAmount string `json:"totalAmount"`
	}{order(o), money(o.TotalAmount)})
}

// MarshalJSON writes the unit price with two fraction digits.
func (i OrderItem) MarshalJSON() ([]byte, error) {
	type orderItem OrderItem
	return json.Marshal(struct {
		orderItem
		UnitPrice string `json:"unitPrice"`
	}{orderItem(i), money(i.UnitPrice)})
}
