package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := E(KindRateLimited, "slow down", errors.New("upstream 429"))
	wrapped := fmt.Errorf("analyze: %w", base)

	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrRateLimited))
	assert.False(t, errors.Is(wrapped, ErrQuotaExceeded))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestPublicMessageHidesUpstreamDetails(t *testing.T) {
	err := External("stripe returned: secret body", errors.New("status=500"))
	assert.Equal(t, "An external service is currently unavailable", PublicMessage(err))

	v := Validation("amount is required")
	assert.Equal(t, "amount is required", PublicMessage(v))

	assert.Equal(t, "Something went wrong", PublicMessage(errors.New("boom")))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindAuthenticationRequired, fiber.StatusUnauthorized},
		{KindExternalUnavailable, fiber.StatusBadGateway},
		{KindRateLimited, fiber.StatusTooManyRequests},
		{KindQuotaExceeded, fiber.StatusPaymentRequired},
		{KindValidation, fiber.StatusBadRequest},
		{KindPremiumRequired, fiber.StatusForbidden},
		{KindNotFound, fiber.StatusNotFound},
		{KindInternal, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.kind), string(tt.kind))
	}
}

func TestRespondWritesErrorBody(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return Respond(c, E(KindQuotaExceeded, "Payment required. Please add credits to your account.", nil))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	var got map[string]string
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "quota_exceeded", got["error"])
	assert.Equal(t, "Payment required. Please add credits to your account.", got["message"])
}
