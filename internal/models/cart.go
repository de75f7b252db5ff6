package models

import "strings"

// LineKey identifies a cart line by its (product, variant, price) triple
type LineKey string

const (
	lineKeySep    = '|'
	lineKeyEscape = '\\'
)

var lineKeyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// NewLineKey builds the key for a triple. Separators and escapes inside the
// ids are backslash-escaped, so distinct triples never share a key.
func NewLineKey(productID, variantID, priceID string) LineKey {
	return LineKey(lineKeyEscaper.Replace(productID) + string(lineKeySep) +
		lineKeyEscaper.Replace(variantID) + string(lineKeySep) +
		lineKeyEscaper.Replace(priceID))
}

// Parts splits the key back into its triple
func (k LineKey) Parts() (productID, variantID, priceID string, ok bool) {
	var (
		parts   []string
		current strings.Builder
		escaped bool
	)
	for _, r := range string(k) {
		switch {
		case escaped:
			if r != lineKeySep && r != lineKeyEscape {
				return "", "", "", false
			}
			current.WriteRune(r)
			escaped = false
		case r == lineKeyEscape:
			escaped = true
		case r == lineKeySep:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		return "", "", "", false
	}
	parts = append(parts, current.String())
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// CartItem is a request to add something to the cart.
// A zero Quantity means one.
type CartItem struct {
	ProductID     string `json:"productId"`
	VariantID     string `json:"variantId"`
	PriceID       string `json:"priceId"`
	Quantity      int    `json:"quantity,omitempty"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	UnitPrice     int64  `json:"unitPrice"`
	OriginalPrice int64  `json:"originalPrice,omitempty"`
	Category      string `json:"category,omitempty"`
	Currency      string `json:"currency,omitempty"`
}

// CartLine is one entry in the cart. Display fields are never sent to checkout.
type CartLine struct {
	Key           LineKey `json:"key"`
	ProductID     string  `json:"productId"`
	VariantID     string  `json:"variantId"`
	PriceID       string  `json:"priceId"`
	Quantity      int     `json:"quantity"`
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
	UnitPrice     int64   `json:"unitPrice"`
	OriginalPrice int64   `json:"originalPrice,omitempty"`
	Category      string  `json:"category,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

// Subtotal is unit price times quantity
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is a point-in-time view of a shopping session
type Cart struct {
	Lines []CartLine `json:"lines"`
	Count int        `json:"count"`
	Total int64      `json:"total"`
	Token string     `json:"cartToken,omitempty"`
}

// LineItem is the checkout request unit
type LineItem struct {
	VariantID string `json:"variantId"`
	PriceID   string `json:"priceId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest is submitted to the commerce platform to open a checkout session
type CheckoutRequest struct {
	LineItems    []LineItem `json:"lineItems"`
	CartToken    string     `json:"cartToken"`
	StoreID      string     `json:"storeId,omitempty"`
	PromotionIDs []string   `json:"promotionIds,omitempty"`
}

// CheckoutResult is the platform response to a checkout request
type CheckoutResult struct {
	CheckoutURL   string `json:"checkoutUrl"`
	CheckoutToken string `json:"checkoutToken,omitempty"`
}

// Session is the platform response to a session handshake
type Session struct {
	SessionID string `json:"sessionId,omitempty"`
	CartToken string `json:"cartToken"`
}
