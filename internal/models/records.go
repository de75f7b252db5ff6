package models

import "time"

// ConfigDocument is a raw configuration document stored in the database
type ConfigDocument struct {
	Name      string    `db:"name" json:"name"`
	Document  []byte    `db:"document" json:"document"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CheckoutAttempt is an audit row for one checkout submission
type CheckoutAttempt struct {
	ID          int64     `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	CartToken   string    `db:"cart_token" json:"cart_token"`
	LineCount   int       `db:"line_count" json:"line_count"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"`
	Status      string    `db:"status" json:"status"`
	CheckoutURL string    `db:"checkout_url" json:"checkout_url,omitempty"`
	Error       string    `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Checkout attempt statuses
const (
	CheckoutStatusInitiated = "INITIATED"
	CheckoutStatusRejected  = "REJECTED"
	CheckoutStatusFailed    = "FAILED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
