package models

import "time"

// Event types
const (
	EventTypeCheckoutInitiated = "CHECKOUT_INITIATED"
	EventTypeCheckoutFailed    = "CHECKOUT_FAILED"
	EventTypeConfigDegraded    = "CONFIG_DEGRADED"
	EventTypeConfigUpdated     = "CONFIG_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutInitiatedEvent published when the platform returned a checkout location
type CheckoutInitiatedEvent struct {
	BaseEvent
	SessionID   string `json:"session_id"`
	CartToken   string `json:"cart_token"`
	StoreID     string `json:"store_id,omitempty"`
	LineCount   int    `json:"line_count"`
	ItemCount   int    `json:"item_count"`
	TotalAmount int64  `json:"total_amount"`
	CheckoutURL string `json:"checkout_url"`
}

// CheckoutFailedEvent published when a checkout attempt did not produce a location
type CheckoutFailedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	CartToken string `json:"cart_token"`
	Reason    string `json:"reason"`
}

// ConfigDegradedEvent published when a load fell back to the built-in default
type ConfigDegradedEvent struct {
	BaseEvent
	ConfigName string `json:"config_name"`
	Reason     string `json:"reason"`
}

// ConfigUpdatedEvent is consumed to invalidate a cached configuration
type ConfigUpdatedEvent struct {
	BaseEvent
	ConfigName string `json:"config_name"`
}
