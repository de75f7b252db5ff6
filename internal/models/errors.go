package models

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shared across the storefront core
var (
	ErrConfigNotFound         = errors.New("configuration not found")
	ErrConfigValidationFailed = errors.New("configuration validation failed")
	ErrInvalidConfigName      = errors.New("invalid configuration name")
	ErrNetworkFailure         = errors.New("network failure")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidQuantity        = errors.New("quantity must be at least 1")
	ErrLineNotFound           = errors.New("cart line not found")
	ErrInvalidCartItem        = errors.New("cart item requires product, variant and price ids")
	ErrMissingSessionToken    = errors.New("cart session token is required")
	ErrCheckoutRejected       = errors.New("checkout rejected: no checkout location returned")
	ErrCheckoutInProgress     = errors.New("checkout already in progress for this cart")
	ErrCheckoutDisabled       = errors.New("checkout is disabled for this storefront")
	ErrProductNotFound        = errors.New("product not found in catalog")
	ErrSessionNotFound        = errors.New("cart session not found")
	ErrConfigReadOnly         = errors.New("configuration source is read-only")
	ErrConfigUnavailable      = errors.New("storefront configuration unavailable")
)

// Violation is one failed constraint in a configuration document
type Violation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Reason
	}
	return v.Path + ": " + v.Reason
}

// ValidationError lists every violation found in a document
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrConfigValidationFailed, strings.Join(parts, ", "))
}

// Is reports ValidationError as ErrConfigValidationFailed
func (e *ValidationError) Is(target error) bool {
	return target == ErrConfigValidationFailed
}
