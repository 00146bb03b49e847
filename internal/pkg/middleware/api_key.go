package middleware

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

const apiKeyPrefix = "cfx_"

// authenticateAPIKey resolves a personal API key to its owner.
func authenticateAPIKey(c *fiber.Ctx, rawKey string) error {
	factory := repository.GetGlobalFactory()
	user, settings, err := factory.GetUserRepository().GetByAPIKeyHash(models.HashAPIKey(rawKey))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.KindAuthenticationRequired, "Invalid API key", nil)
		}
		log.Errorf("[Auth] API key lookup failed: %v", err)
		return err
	}

	if user.Status != models.STATUS_ACTIVE {
		return apperr.E(apperr.KindAuthenticationRequired, "User inactive", nil)
	}

	// Refresh last-used timestamp best-effort.
	if err := factory.GetSettingsRepository().TouchAPIKey(settings.ID, time.Now()); err != nil {
		log.Warnf("[Auth] Failed to update api key usage timestamp for user %d: %v", user.ID, err)
	}

	setUser(c, user, settings, usercontext.AuthMethodAPIKey)
	return nil
}

// extractAPIKeyFromHeader reads X-API-Key, or a bearer value that carries an API key.
func extractAPIKeyFromHeader(c *fiber.Ctx) string {
	apiKey := strings.TrimSpace(c.Get("X-API-Key"))
	if apiKey != "" {
		return apiKey
	}
	if bearer := extractBearer(c); strings.HasPrefix(bearer, apiKeyPrefix) {
		return bearer
	}
	return ""
}

func extractBearer(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
