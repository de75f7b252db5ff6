package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// SessionStarter performs the platform session handshake
type SessionStarter interface {
	StartSession(ctx context.Context) (*models.Session, error)
}

// AddItemRequest represents a request to add a catalog item to the cart
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	VariantID string `json:"variantId" binding:"required"`
	PriceID   string `json:"priceId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,min=1"`
}

// CartService owns the shopping sessions hosted by this process
type CartService struct {
	registry *cart.Registry
	catalog  catalog.Source
	sessions SessionStarter
	logger   *zap.Logger
}

// NewCartService creates a cart service. sessions may be nil, in which case
// carts get their token later through SetToken.
func NewCartService(registry *cart.Registry, source catalog.Source, sessions SessionStarter) *CartService {
	return &CartService{
		registry: registry,
		catalog:  source,
		sessions: sessions,
		logger:   util.GetLogger(),
	}
}

// StartSession creates a cart session and attaches the platform cart token
func (s *CartService) StartSession(ctx context.Context) (string, models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.StartSession")
	defer span.End()

	var token string
	if s.sessions != nil {
		session, err := s.sessions.StartSession(ctx)
		if err != nil {
			util.RecordError(span, err)
			return "", models.Cart{}, err
		}
		token = session.CartToken
	}

	id, manager := s.registry.Create()
	if token != "" {
		manager.SetToken(token)
	}
	util.CartSessionsActive.Set(float64(s.registry.Len()))

	s.logger.Info("Cart session started", zap.String("session_id", id), zap.Bool("has_token", token != ""))
	return id, manager.Snapshot(), nil
}

func (s *CartService) manager(sessionID string) (*cart.Manager, error) {
	m, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, sessionID)
	}
	return m, nil
}

// Cart returns a snapshot of the session cart
func (s *CartService) Cart(sessionID string) (models.Cart, error) {
	m, err := s.manager(sessionID)
	if err != nil {
		return models.Cart{}, err
	}
	return m.Snapshot(), nil
}

// AddItem resolves the item against the catalog so price and display data
// come from the platform, then adds it to the cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	m, err := s.manager(sessionID)
	if err != nil {
		return models.Cart{}, err
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		util.RecordError(span, err)
		return models.Cart{}, fmt.Errorf("failed to list products: %w", err)
	}
	item, err := catalog.CartItem(products, req.ProductID, req.VariantID, req.PriceID, req.Quantity)
	if err != nil {
		util.CartMutationsTotal.WithLabelValues("add", "rejected").Inc()
		return models.Cart{}, err
	}

	snapshot, err := m.AddItem(item)
	observeMutation("add", err)
	return snapshot, err
}

// UpdateQuantity sets a line quantity exactly
func (s *CartService) UpdateQuantity(sessionID string, key models.LineKey, quantity int) (models.Cart, error) {
	m, err := s.manager(sessionID)
	if err != nil {
		return models.Cart{}, err
	}
	snapshot, err := m.UpdateQuantity(key, quantity)
	observeMutation("update", err)
	return snapshot, err
}

// RemoveItem removes a line; removing an absent line is not an error
func (s *CartService) RemoveItem(sessionID string, key models.LineKey) (models.Cart, error) {
	m, err := s.manager(sessionID)
	if err != nil {
		return models.Cart{}, err
	}
	observeMutation("remove", nil)
	return m.RemoveItem(key), nil
}

// Clear empties the cart. The platform token is dropped only when resetToken is set.
func (s *CartService) Clear(sessionID string, resetToken bool) (models.Cart, error) {
	m, err := s.manager(sessionID)
	if err != nil {
		return models.Cart{}, err
	}
	m.Clear()
	if resetToken {
		m.ClearToken()
	}
	observeMutation("clear", nil)
	return m.Snapshot(), nil
}

// RunSweeper forgets idle sessions every interval until ctx is done
func (s *CartService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.registry.Sweep(); removed > 0 {
				s.logger.Info("Swept idle cart sessions", zap.Int("removed", removed))
			}
			util.CartSessionsActive.Set(float64(s.registry.Len()))
		}
	}
}

func observeMutation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	util.CartMutationsTotal.WithLabelValues(operation, result).Inc()
}
