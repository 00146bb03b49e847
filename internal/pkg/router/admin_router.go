package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CashFox/app/controllers"
	"github.com/ManuelReschke/CashFox/internal/pkg/middleware"
)

type AdminRouter struct{}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	// Initialize admin controllers with repositories
	controllers.InitializeAdminController()

	adminGroup := app.Group("/api/v1/admin", middleware.Authenticate(), middleware.RequireAdmin)
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Put("/users/:id", controllers.HandleAdminUserUpdate)
	adminGroup.Delete("/users/:id", controllers.HandleAdminUserDelete)

	// Queue monitor and manual job triggers
	adminGroup.Get("/queues", controllers.HandleAdminQueues)
	adminGroup.Delete("/queues/:key", controllers.HandleAdminQueueDelete)
	adminGroup.Post("/jobs/bill-reminders", controllers.HandleAdminRunBillReminders)
	adminGroup.Post("/jobs/entitlement-refresh", controllers.HandleAdminRunEntitlementRefresh)
}

func NewAdminRouter() *AdminRouter {
	return &AdminRouter{}
}
