package store

import (
	"context"

	"storefront/internal/models"
)

// CreateCheckoutAttempt records one checkout submission
func (s *Store) CreateCheckoutAttempt(ctx context.Context, attempt *models.CheckoutAttempt) error {
	query := `
		INSERT INTO checkout_attempts (session_id, cart_token, line_count, total_amount, status, checkout_url, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		attempt.SessionID, attempt.CartToken, attempt.LineCount, attempt.TotalAmount,
		attempt.Status, attempt.CheckoutURL, attempt.Error,
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
