// Package checkout turns cart state into the request that opens a checkout
// session on the commerce platform.
package checkout

import "storefront/internal/models"

// Validate checks that cart can be submitted
func Validate(cart models.Cart) error {
	if len(cart.Lines) == 0 {
		return models.ErrEmptyCart
	}
	if cart.Token == "" {
		return models.ErrMissingSessionToken
	}
	return nil
}

// Build maps each cart line to a line item, preserving line order
func Build(cart models.Cart) ([]models.LineItem, error) {
	if err := Validate(cart); err != nil {
		return nil, err
	}

	items := make([]models.LineItem, len(cart.Lines))
	for i, line := range cart.Lines {
		items[i] = models.LineItem{
			VariantID: line.VariantID,
			PriceID:   line.PriceID,
			Quantity:  line.Quantity,
		}
	}
	return items, nil
}

// NewRequest assembles a fresh checkout request from cart.
// storeID and promotionIDs are optional.
func NewRequest(cart models.Cart, storeID string, promotionIDs []string) (*models.CheckoutRequest, error) {
	items, err := Build(cart)
	if err != nil {
		return nil, err
	}

	req := &models.CheckoutRequest{
		LineItems: items,
		CartToken: cart.Token,
		StoreID:   storeID,
	}
	if len(promotionIDs) > 0 {
		req.PromotionIDs = append([]string(nil), promotionIDs...)
	}
	return req, nil
}
