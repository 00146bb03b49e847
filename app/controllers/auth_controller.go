package controllers

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
	"github.com/ManuelReschke/CashFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/CashFox/internal/pkg/security"
)

type signupRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

var errInvalidLogin = apperr.E(apperr.KindAuthenticationRequired, "Invalid email or password", nil)

// HandleAuthSignup registers a user and returns an access token.
func HandleAuthSignup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return apperr.Respond(c, validationError(err))
	}

	repos := repository.GetGlobalRepositories()
	if existing, err := repos.User.GetByEmail(user.Email); err == nil && existing != nil {
		return apperr.Respond(c, apperr.Validation("Email is already registered"))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Respond(c, storeError(err, "User"))
	}

	if err := repos.User.Create(user); err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}
	if _, err := repos.Settings.GetOrCreate(user.ID); err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}

	log.Infof("[Auth] New user %d registered", user.ID)
	resolveOnSessionStart(user)
	return issueToken(c, fiber.StatusCreated, user)
}

// HandleAuthLogin checks the credentials and returns an access token.
// Unknown email and wrong password produce the same answer.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return apperr.Respond(c, apperr.Validation("Email and password are required"))
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, errInvalidLogin)
		}
		return apperr.Respond(c, storeError(err, "User"))
	}
	if !user.IsActive() || !user.CheckPassword(req.Password) {
		return apperr.Respond(c, errInvalidLogin)
	}

	now := clock()
	user.LastLoginAt = &now
	if err := repos.User.Update(user); err != nil {
		log.Warnf("[Auth] Failed to update last login for user %d: %v", user.ID, err)
	}

	resolveOnSessionStart(user)
	return issueToken(c, fiber.StatusOK, user)
}

// HandleAuthLogout ends the session by dropping the cached entitlement.
// Access tokens are stateless and simply expire.
func HandleAuthLogout(c *fiber.Ctx) error {
	u, err := currentEntitlementUser(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	ctx, cancel := requestContext()
	defer cancel()

	if err := entitlements.GetResolver().Clear(ctx, u.ID); err != nil {
		return apperr.Respond(c, storeError(err, "Subscription"))
	}
	log.Infof("[Auth] User %d logged out", u.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

// resolveOnSessionStart resolves the plan when a session starts so premium
// gates see promotion and subscription state right away. Billing failures
// only cost the refresh, never the login.
func resolveOnSessionStart(user *models.User) {
	ctx, cancel := requestContext()
	defer cancel()

	if _, err := entitlements.GetResolver().Resolve(ctx, entitlements.User{ID: user.ID, Email: user.Email}); err != nil {
		log.Warnf("[Auth] Entitlement refresh for user %d failed: %v", user.ID, err)
	}
}

func issueToken(c *fiber.Ctx, status int, user *models.User) error {
	secret := security.JWTSecret()
	if secret == "" {
		log.Error("[Auth] JWT_SECRET is not configured")
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", nil))
	}
	token, err := security.GenerateAccessToken(user.ID, user.Email, security.DefaultTokenTTL, secret)
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	return c.Status(status).JSON(fiber.Map{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": clock().Add(security.DefaultTokenTTL).UTC().Format(time.RFC3339),
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}
