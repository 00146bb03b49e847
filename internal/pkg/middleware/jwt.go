package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/security"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

// authenticateJWT validates an access token and loads its user.
func authenticateJWT(c *fiber.Ctx, token string) error {
	claims, err := security.VerifyAccessToken(token, security.JWTSecret())
	if err != nil {
		return apperr.E(apperr.KindAuthenticationRequired, "Invalid token", err)
	}

	factory := repository.GetGlobalFactory()
	user, err := factory.GetUserRepository().GetByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.E(apperr.KindAuthenticationRequired, "Invalid token", nil)
		}
		log.Errorf("[Auth] User lookup for token failed: %v", err)
		return err
	}
	if user.Status != models.STATUS_ACTIVE {
		return apperr.E(apperr.KindAuthenticationRequired, "User inactive", nil)
	}

	settings, err := factory.GetSettingsRepository().GetOrCreate(user.ID)
	if err != nil {
		log.Errorf("[Auth] Failed to load settings for user %d: %v", user.ID, err)
		return err
	}

	setUser(c, user, settings, usercontext.AuthMethodJWT)
	return nil
}
