package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

const DefaultSignatureTolerance = 300 * time.Second

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
)

// VerifyStripeSignature checks a Stripe-Signature header against the
// endpoint secret. Timestamps older than tolerance are rejected.
func VerifyStripeSignature(payload []byte, header, secret string, tolerance time.Duration) error {
	secret = strings.TrimSpace(secret)
	if secret == "" || strings.TrimSpace(header) == "" {
		return ErrInvalidSignature
	}

	var err error
	if tolerance > 0 {
		err = webhook.ValidatePayloadWithTolerance(payload, header, secret, tolerance)
	} else {
		err = webhook.ValidatePayloadIgnoringTolerance(payload, header, secret)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrTooOld):
		return ErrSignatureExpired
	default:
		return ErrInvalidSignature
	}
}

// SignStripePayload builds a header value the verifier accepts.
func SignStripePayload(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}
