// Package services holds the storefront business rules behind the HTTP
// boundaries: promo validation, order creation and tracking, the catalog,
// the voice session descriptor and the text generation proxy.
//
// Errors in this file are returned for predictable cases. Handlers translate
// them into status codes and shopper-facing messages.
package services

import (
	"errors"
	"fmt"
)

// Promo errors.
var (
	// ErrPromoCodeRequired is returned for a blank code. No lookup happens.
	ErrPromoCodeRequired = errors.New("promo code is required")

	// ErrInvalidCartTotal is returned when cartTotal <= 0. No lookup happens.
	ErrInvalidCartTotal = errors.New("cart total must be positive")

	// ErrPromoNotFound covers unknown and deactivated codes.
	ErrPromoNotFound = errors.New("promo code not found")

	// ErrPromoExpired is returned for a code past its expiry.
	ErrPromoExpired = errors.New("promo code expired")
)

// Order errors.
var (
	// ErrInvalidOrder is the parent of every *ValidationError.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrTotalMismatch is returned when the client total disagrees with the
	// server-computed one by more than one unit.
	ErrTotalMismatch = errors.New("order total does not match cart")

	// ErrDiscountMismatch is returned when the claimed discount is not what
	// the promo grants, or exceeds the subtotal.
	ErrDiscountMismatch = errors.New("discount does not match promo")

	// ErrOrderConflict is returned when an order id is reused for a
	// different order.
	ErrOrderConflict = errors.New("order id already used")

	// ErrPhoneRequired is returned when tracking without a usable phone.
	ErrPhoneRequired = errors.New("phone is required")
)

// Catalog errors.
var ErrProductNotFound = errors.New("product not found")

// Upstream errors.
var (
	// ErrVoiceUnavailable is returned when no Gemini key is configured.
	ErrVoiceUnavailable = errors.New("voice assistant is not configured")

	// ErrAssistantUnavailable is returned when no generator is configured.
	ErrAssistantUnavailable = errors.New("assistant is not configured")

	// ErrGenerateMode is returned unless exactly one of message or prompt is set.
	ErrGenerateMode = errors.New("exactly one of message or prompt is required")

	// ErrTooLong is returned when an input exceeds the configured rune limit.
	ErrTooLong = errors.New("input too long")

	// ErrInvalidHistory is returned for a history turn with an unknown role.
	ErrInvalidHistory = errors.New("history role must be user or model")

	// ErrGeneration wraps the last upstream error once every candidate failed.
	ErrGeneration = errors.New("text generation failed")
)

// ValidationError reports one invalid order field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// Unwrap lets errors.Is match ErrInvalidOrder.
func (e *ValidationError) Unwrap() error { return ErrInvalidOrder }

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
