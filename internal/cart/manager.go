// Package cart holds shopping session state.
package cart

import (
	"fmt"
	"sync"

	"storefront/internal/models"
)

// Manager owns the lines and platform token of one shopping session.
// Mutations are serialized; count and total are derived on every read.
type Manager struct {
	mu    sync.Mutex
	lines []models.CartLine
	token string
}

// NewManager creates an empty cart
func NewManager() *Manager {
	return &Manager{}
}

// AddItem merges item into the line with the same (product, variant, price)
// triple, or appends a new line. A zero quantity adds one.
func (m *Manager) AddItem(item models.CartItem) (models.Cart, error) {
	if item.ProductID == "" || item.VariantID == "" || item.PriceID == "" {
		return models.Cart{}, models.ErrInvalidCartItem
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if item.Quantity < 1 {
		return models.Cart{}, fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, item.Quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.NewLineKey(item.ProductID, item.VariantID, item.PriceID)
	if i := m.indexOfTriple(item.ProductID, item.VariantID, item.PriceID); i >= 0 {
		m.lines[i].Quantity += item.Quantity
		return m.snapshot(), nil
	}

	m.lines = append(m.lines, models.CartLine{
		Key:           key,
		ProductID:     item.ProductID,
		VariantID:     item.VariantID,
		PriceID:       item.PriceID,
		Quantity:      item.Quantity,
		Name:          item.Name,
		Image:         item.Image,
		UnitPrice:     item.UnitPrice,
		OriginalPrice: item.OriginalPrice,
		Category:      item.Category,
		Currency:      item.Currency,
	})
	return m.snapshot(), nil
}

// UpdateQuantity sets the quantity of an existing line
func (m *Manager) UpdateQuantity(key models.LineKey, quantity int) (models.Cart, error) {
	if quantity < 1 {
		return models.Cart{}, fmt.Errorf("%w: got %d", models.ErrInvalidQuantity, quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(key)
	if i < 0 {
		return models.Cart{}, fmt.Errorf("%w: %s", models.ErrLineNotFound, key)
	}
	m.lines[i].Quantity = quantity
	return m.snapshot(), nil
}

// RemoveItem drops the line if present
func (m *Manager) RemoveItem(key models.LineKey) models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(key); i >= 0 {
		m.lines = append(m.lines[:i], m.lines[i+1:]...)
	}
	return m.snapshot()
}

// Clear empties the cart and keeps the token
func (m *Manager) Clear() models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = nil
	return m.snapshot()
}

// SetToken records the token issued by the platform handshake
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// ClearToken forgets the platform token
func (m *Manager) ClearToken() {
	m.SetToken("")
}

// Token returns the platform token, empty before a handshake
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Count is the sum of line quantities
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return count(m.lines)
}

// Total is the sum of line subtotals in minor units
func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return total(m.lines)
}

// Lines returns a copy of the lines in insertion order
func (m *Manager) Lines() []models.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLines()
}

// Snapshot returns lines, derived totals and token read under one lock
func (m *Manager) Snapshot() models.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Manager) snapshot() models.Cart {
	return models.Cart{
		Lines: m.copyLines(),
		Count: count(m.lines),
		Total: total(m.lines),
		Token: m.token,
	}
}

func (m *Manager) copyLines() []models.CartLine {
	out := make([]models.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Manager) indexOfTriple(productID, variantID, priceID string) int {
	for i, l := range m.lines {
		if l.ProductID == productID && l.VariantID == variantID && l.PriceID == priceID {
			return i
		}
	}
	return -1
}

func (m *Manager) indexOf(key models.LineKey) int {
	for i := range m.lines {
		if m.lines[i].Key == key {
			return i
		}
	}
	return -1
}

func count(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func total(lines []models.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
