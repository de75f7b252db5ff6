package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

// GetConfigDocument retrieves a stored configuration document by name
func (s *Store) GetConfigDocument(ctx context.Context, name string) (*models.ConfigDocument, error) {
	var doc models.ConfigDocument
	err := s.db.GetContext(ctx, &doc,
		"SELECT name, document, updated_at FROM storefront_configs WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrConfigNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Fetch returns the raw document for name, making Store a configuration source
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	doc, err := s.GetConfigDocument(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Document, nil
}

// UpsertConfigDocument creates or replaces a configuration document
func (s *Store) UpsertConfigDocument(ctx context.Context, doc *models.ConfigDocument) error {
	query := `
		INSERT INTO storefront_configs (name, document)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
		RETURNING updated_at`

	return s.db.GetContext(ctx, &doc.UpdatedAt, query, doc.Name, doc.Document)
}

// ListConfigNames returns the stored configuration names
func (s *Store) ListConfigNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, "SELECT name FROM storefront_configs ORDER BY name")
	return names, err
}
