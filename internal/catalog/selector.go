// Package catalog narrows the commerce platform catalog to what a storefront
// configuration sells.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"storefront/internal/models"
)

// Source lists the platform catalog with variant and price detail
type Source interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// Select keeps catalog products allowed by cfg, in catalog order.
// An empty allow-list keeps everything. Configured ids absent from the
// catalog are dropped.
func Select(products []models.Product, cfg *models.Configuration) []models.Product {
	if len(products) == 0 {
		return []models.Product{}
	}
	if cfg == nil || len(cfg.ProductIDs) == 0 {
		return products
	}

	allowed := make(map[string]struct{}, len(cfg.ProductIDs))
	for _, id := range cfg.ProductIDs {
		allowed[id] = struct{}{}
	}

	selected := make([]models.Product, 0, len(cfg.ProductIDs))
	for _, p := range products {
		if _, ok := allowed[p.ID]; ok {
			selected = append(selected, p)
		}
	}
	return selected
}

// Missing returns configured ids that the catalog does not carry
func Missing(products []models.Product, cfg *models.Configuration) []string {
	have := make(map[string]struct{}, len(products))
	for _, p := range products {
		have[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range cfg.ProductIDs {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// Find returns the product with id
func Find(products []models.Product, id string) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// CartItem resolves a (product, variant, price) triple against the catalog and
// fills the display metadata a cart line carries.
func CartItem(products []models.Product, productID, variantID, priceID string, quantity int) (models.CartItem, error) {
	product, ok := Find(products, productID)
	if !ok {
		return models.CartItem{}, fmt.Errorf("%w: %s", models.ErrProductNotFound, productID)
	}
	for _, v := range product.Variants {
		if v.ID != variantID {
			continue
		}
		for _, pr := range v.Prices {
			if pr.ID != priceID {
				continue
			}
			name := product.Name
			if v.Name != "" {
				name = product.Name + " - " + v.Name
			}
			return models.CartItem{
				ProductID:     product.ID,
				VariantID:     v.ID,
				PriceID:       pr.ID,
				Quantity:      quantity,
				Name:          name,
				Image:         product.Image(),
				UnitPrice:     pr.Amount,
				OriginalPrice: pr.OriginalAmount,
				Category:      product.Category,
				Currency:      pr.Currency,
			}, nil
		}
	}
	return models.CartItem{}, fmt.Errorf("%w: %s variant %s price %s", models.ErrProductNotFound, productID, variantID, priceID)
}

// Static serves a fixed product list
type Static struct {
	products []models.Product
}

// NewStatic creates a catalog source over products
func NewStatic(products []models.Product) *Static {
	return &Static{products: products}
}

// LoadStatic reads a JSON array of products from path
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return NewStatic(products), nil
}

// ListProducts returns a copy of the product list
func (s *Static) ListProducts(ctx context.Context) ([]models.Product, error) {
	out := make([]models.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}
