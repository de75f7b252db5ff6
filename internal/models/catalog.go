package models

// Product is a catalog entry owned by the commerce platform
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
}

// Variant is a purchasable form of a product
type Variant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	SKU    string  `json:"sku,omitempty"`
	Prices []Price `json:"prices,omitempty"`
}

// Price amounts are in minor currency units
type Price struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	OriginalAmount int64  `json:"originalAmount,omitempty"`
}

// Image returns the first product image, if any
func (p Product) Image() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
