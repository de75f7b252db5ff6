package service

import (
	"context"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// CatalogService narrows the platform catalog to a configuration's selection
type CatalogService struct {
	source catalog.Source
	logger *zap.Logger
}

func NewCatalogService(source catalog.Source) *CatalogService {
	return &CatalogService{source: source, logger: util.GetLogger()}
}

// Products returns the catalog products cfg sells, in catalog order
func (s *CatalogService) Products(ctx context.Context, cfg *models.Configuration) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Products")
	defer span.End()

	products, err := s.source.ListProducts(ctx)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if missing := catalog.Missing(products, cfg); len(missing) > 0 {
		s.logger.Debug("Configured products absent from catalog",
			zap.String("config", cfg.Name),
			zap.Strings("product_ids", missing))
	}
	return catalog.Select(products, cfg), nil
}
