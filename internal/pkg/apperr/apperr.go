// Package apperr carries the error kinds surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindExternalUnavailable    Kind = "external_service_unavailable"
	KindRateLimited            Kind = "rate_limited"
	KindQuotaExceeded          Kind = "quota_exceeded"
	KindValidation             Kind = "validation_failed"
	KindPremiumRequired        Kind = "premium_required"
	KindNotFound               Kind = "not_found"
	KindInternal               Kind = "internal_server_error"
)

// Error is a categorized failure. Message is safe to show to users; Cause is not.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so sentinels like ErrValidation work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && t.Message == ""
	}
	return false
}

// E builds a categorized error.
func E(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinels for errors.Is checks.
var (
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired}
	ErrExternalUnavailable    = &Error{Kind: KindExternalUnavailable}
	ErrRateLimited            = &Error{Kind: KindRateLimited}
	ErrQuotaExceeded          = &Error{Kind: KindQuotaExceeded}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrPremiumRequired        = &Error{Kind: KindPremiumRequired}
	ErrNotFound               = &Error{Kind: KindNotFound}
)

func Validation(message string) *Error {
	return E(KindValidation, message, nil)
}

func External(message string, cause error) *Error {
	return E(KindExternalUnavailable, message, cause)
}

// KindOf returns the kind of err, KindInternal for uncategorized errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindAuthenticationRequired:
		return fiber.StatusUnauthorized
	case KindExternalUnavailable:
		return fiber.StatusBadGateway
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	case KindQuotaExceeded:
		return fiber.StatusPaymentRequired
	case KindValidation:
		return fiber.StatusBadRequest
	case KindPremiumRequired:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

var defaultMessages = map[Kind]string{
	KindAuthenticationRequired: "Authentication required",
	KindExternalUnavailable:    "An external service is currently unavailable",
	KindRateLimited:            "Rate limit exceeded. Please try again later.",
	KindQuotaExceeded:          "Payment required. Please add credits to your account.",
	KindValidation:             "Invalid input",
	KindPremiumRequired:        "This feature requires a premium subscription",
	KindNotFound:               "Resource not found",
	KindInternal:               "Something went wrong",
}

// PublicMessage returns the user-facing text for err. External failures
// always get the category text, never the upstream body.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" && e.Kind != KindExternalUnavailable && e.Kind != KindInternal {
			return e.Message
		}
		return defaultMessages[e.Kind]
	}
	return defaultMessages[KindInternal]
}

// Respond writes the standard {"error","message"} JSON body for err.
func Respond(c *fiber.Ctx, err error) error {
	kind := KindOf(err)
	return c.Status(Status(kind)).JSON(fiber.Map{
		"error":   string(kind),
		"message": PublicMessage(err),
	})
}
