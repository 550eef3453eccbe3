package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongStep is returned when an action is not valid at the draft's current step.
	ErrWrongStep = errors.New("checkout: action not allowed at this step")
	// ErrValidation wraps every local input validation failure. Such input is never sent.
	ErrValidation = errors.New("checkout: invalid input")
	// ErrEmptyCart is returned when checkout begins or submits with no lines.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrPromoNotFound and ErrPromoExpired are the two distinct promo rejections.
	ErrPromoNotFound = errors.New("checkout: promo code not found")
	ErrPromoExpired  = errors.New("checkout: promo code expired")
	// ErrPromoRejected covers any other collaborator-side promo refusal.
	ErrPromoRejected = errors.New("checkout: promo code rejected")

	// ErrOrderRejected is a collaborator refusal of the order itself.
	ErrOrderRejected = errors.New("checkout: order rejected")
	// ErrUnavailable marks a transport failure; the user may retry.
	ErrUnavailable = errors.New("checkout: service unavailable")
)

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field string
	msg   string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.msg) }

// Unwrap lets errors.Is match ErrValidation.
func (e *FieldError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error { return &FieldError{Field: field, msg: msg} }

// RemoteError carries a collaborator's own message, which is shown to the
// user verbatim. Kind is one of the promo or order sentinels above.
type RemoteError struct {
	Kind    error
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// Rejected builds a RemoteError.
func Rejected(kind error, msg string) error { return &RemoteError{Kind: kind, Message: msg} }
