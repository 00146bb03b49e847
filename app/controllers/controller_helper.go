package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

const requestTimeout = 15 * time.Second

// clock is swapped in tests.
var clock = time.Now

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// currentUserID returns the authenticated user or an authentication error.
func currentUserID(c *fiber.Ctx) (uint, error) {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn || uc.UserID == 0 {
		return 0, apperr.ErrAuthenticationRequired
	}
	return uc.UserID, nil
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// storeError maps repository errors onto API error kinds.
func storeError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.E(apperr.KindNotFound, what+" not found", err)
	}
	log.Errorf("[API] %s store error: %v", what, err)
	return apperr.E(apperr.KindInternal, "", err)
}

// validationError turns validator output into a short message naming the first bad field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return apperr.E(apperr.KindValidation, "Invalid value for "+strings.ToLower(f.Field()), err)
	}
	return apperr.E(apperr.KindValidation, "Invalid input", err)
}

// requireAmount rejects missing or negative amounts.
func requireAmount(v *decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, apperr.Validation("Amount is required")
	}
	if v.IsNegative() {
		return decimal.Zero, apperr.Validation("Amount must not be negative")
	}
	return *v, nil
}

// parseDate accepts YYYY-MM-DD or RFC3339. Blank gives def.
func parseDate(raw string, def time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw, time.Time{})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
