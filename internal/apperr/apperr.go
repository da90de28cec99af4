package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of domain failure categories. Services return one of
// these; handlers map them to transport status in exactly one place.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindQuotaExceeded   Kind = "quota_exceeded"
	KindPremiumRequired Kind = "premium_required"
	KindValidation      Kind = "validation"
	KindForbidden       Kind = "forbidden"
	KindConflict        Kind = "conflict"
)

type Error struct {
	Kind    Kind
	Message string

	// Quota detail, set for KindQuotaExceeded. Action names the limited
	// operation, Limit the configured ceiling, Current the observed count.
	Action  string
	Limit   int
	Current int

	// Feature names the gated capability for KindPremiumRequired.
	Feature string

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match any *Error of the same Kind, so callers can use
// kind sentinels without caring about detail fields.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", entity)}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func QuotaExceeded(action string, limit, current int) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Message: fmt.Sprintf("daily limit of %d reached for %s", limit, action),
		Action:  action,
		Limit:   limit,
		Current: current,
	}
}

func PremiumRequired(feature string) *Error {
	return &Error{
		Kind:    KindPremiumRequired,
		Message: fmt.Sprintf("premium subscription required for %s", feature),
		Feature: feature,
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// From extracts an *Error from err's chain, or nil if none is present.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HTTPStatus maps a Kind to its transport status. Infrastructure errors
// (no *Error in the chain) fall through to 500 at the handler boundary.
func HTTPStatus(err error) int {
	ae := From(err)
	if ae == nil {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState, KindValidation:
		return http.StatusBadRequest
	case KindQuotaExceeded, KindPremiumRequired:
		return http.StatusPaymentRequired
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
