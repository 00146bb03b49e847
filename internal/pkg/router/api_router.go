package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	apiv1 "github.com/ManuelReschke/CashFox/internal/api/v1"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/env"
	"github.com/ManuelReschke/CashFox/internal/pkg/middleware"
)

type ApiRouter struct {
	// Storage backs the rate limiter. Nil means Redis.
	Storage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	storage := h.Storage
	if storage == nil {
		storage = limiterStorage()
	}

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        env.GetInt("API_RATE_LIMIT", 120),
		Expiration: time.Minute,
		Storage:    storage,
		Next: func(c *fiber.Ctx) bool {
			// Stripe retries on its own schedule.
			return strings.HasSuffix(c.Path(), "/billing/stripe/webhook")
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperr.Respond(c, apperr.E(apperr.KindRateLimited, "Too many requests", nil))
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer, apiv1.Guards{
		Authenticate: middleware.Authenticate(),
		Premium:      middleware.RequirePremium,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
