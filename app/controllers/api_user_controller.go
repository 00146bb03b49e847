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
)

type settingsRequest struct {
	PhoneNumber   *string `json:"phone_number"`
	BillReminders *bool   `json:"bill_reminders"`
}

// HandleGetUserAccount returns account information for the authenticated user (API key or JWT).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	repos := repository.GetGlobalRepositories()
	account, err := repos.User.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Respond(c, apperr.E(apperr.KindNotFound, "User not found", err))
		}
		return apperr.Respond(c, storeError(err, "User"))
	}
	settings, err := repos.Settings.GetOrCreate(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}

	plan := entitlements.PlanOf(settings)
	return c.JSON(fiber.Map{
		"id":            account.ID,
		"name":          account.Name,
		"email":         account.Email,
		"status":        account.Status,
		"plan":          plan,
		"is_admin":      account.Role == models.ROLE_ADMIN,
		"created_at":    account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(account.LastLoginAt),
		"settings": fiber.Map{
			"phone_number":   settings.PhoneNumber,
			"bill_reminders": settings.BillReminders,
		},
		"api_key": fiber.Map{
			"active":       settings.HasActiveAPIKey(),
			"prefix":       settings.APIKeyPrefix,
			"created_at":   formatTimePtr(settings.APIKeyCreatedAt),
			"last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		},
		"features": fiber.Map{
			"investments":       entitlements.CanUseInvestments(plan),
			"sms_notifications": entitlements.CanUseSMS(plan),
			"analysis_tier":     entitlements.AnalysisTier(plan),
		},
	})
}

// HandleUpdateUserSettings changes the phone number and the reminder opt-in.
func HandleUpdateUserSettings(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req settingsRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	repo := repository.GetGlobalRepositories().Settings
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	if req.PhoneNumber != nil {
		settings.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.BillReminders != nil {
		settings.BillReminders = *req.BillReminders
	}
	if err := settings.Validate(); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := repo.Save(settings); err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	return c.JSON(fiber.Map{
		"phone_number":   settings.PhoneNumber,
		"bill_reminders": settings.BillReminders,
	})
}

// HandleCreateAPIKey issues a new personal API key. The raw key is only
// returned once; an existing key is replaced.
func HandleCreateAPIKey(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	repo := repository.GetGlobalRepositories().Settings
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	raw, err := settings.IssueAPIKey()
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	if err := repo.Save(settings); err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	log.Infof("[Account] Issued API key %s for user %d", settings.APIKeyPrefix, userID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"api_key":    raw,
		"prefix":     settings.APIKeyPrefix,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
	})
}

func HandleRevokeAPIKey(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	repo := repository.GetGlobalRepositories().Settings
	settings, err := repo.GetOrCreate(userID)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	if !settings.HasActiveAPIKey() {
		return apperr.Respond(c, apperr.E(apperr.KindNotFound, "No active API key", nil))
	}
	settings.RevokeAPIKey()
	if err := repo.Save(settings); err != nil {
		return apperr.Respond(c, storeError(err, "Settings"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
