package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	icuser "github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

// Authenticate accepts a personal API key (X-API-Key) or a JWT bearer token.
// Anything else is rejected with 401 authentication_required.
func Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var err error
		if apiKey := extractAPIKeyFromHeader(c); apiKey != "" {
			err = authenticateAPIKey(c, apiKey)
		} else if token := extractBearer(c); token != "" {
			err = authenticateJWT(c, token)
		} else {
			err = apperr.ErrAuthenticationRequired
		}
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, user *models.User, settings *models.UserSettings, method string) {
	plan := string(entitlements.PlanOf(settings))
	icuser.Set(c, icuser.UserContext{
		UserID:     user.ID,
		Username:   user.Name,
		Email:      user.Email,
		IsLoggedIn: true,
		IsAdmin:    user.Role == models.ROLE_ADMIN,
		Plan:       plan,
	})
	c.Locals(icuser.KeyAuthMethod, method)
}

// RequireAuth ensures an authenticated caller.
func RequireAuth(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return apperr.Respond(c, apperr.ErrAuthenticationRequired)
	}
	return c.Next()
}

// RequireAdmin ensures an authenticated admin.
func RequireAdmin(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return apperr.Respond(c, apperr.ErrAuthenticationRequired)
	}
	if !icuser.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin access required",
		})
	}
	return c.Next()
}

// RequirePremium gates a route on the stored plan.
func RequirePremium(c *fiber.Ctx) error {
	if !icuser.IsLoggedIn(c) {
		return apperr.Respond(c, apperr.ErrAuthenticationRequired)
	}
	if entitlements.NormalizePlan(icuser.GetUserContext(c).Plan) != entitlements.PlanPremium {
		return apperr.Respond(c, apperr.ErrPremiumRequired)
	}
	return c.Next()
}
