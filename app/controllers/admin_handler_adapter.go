package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/jobqueue"
)

// Global admin controller instances
var (
	adminController      *AdminController
	adminQueueController *AdminQueueController
)

// InitializeAdminController initializes the global admin controllers with repositories
func InitializeAdminController() {
	repos := repository.GetGlobalRepositories()
	adminController = NewAdminController(repos)
	adminQueueController = NewAdminQueueController(repos.Queue, jobqueue.GetManager())
}

// GetAdminController returns the global admin controller instance
func GetAdminController() *AdminController {
	if adminController == nil {
		InitializeAdminController()
	}
	return adminController
}

// GetAdminQueueController returns the global admin queue controller instance
func GetAdminQueueController() *AdminQueueController {
	if adminQueueController == nil {
		InitializeAdminController()
	}
	return adminQueueController
}

// Adapter functions so the router can register plain handlers

func HandleAdminUsers(c *fiber.Ctx) error {
	return GetAdminController().HandleUsers(c)
}

func HandleAdminUserUpdate(c *fiber.Ctx) error {
	return GetAdminController().HandleUserUpdate(c)
}

func HandleAdminUserDelete(c *fiber.Ctx) error {
	return GetAdminController().HandleUserDelete(c)
}

func HandleAdminQueues(c *fiber.Ctx) error {
	return GetAdminQueueController().HandleAdminQueues(c)
}

func HandleAdminQueueDelete(c *fiber.Ctx) error {
	return GetAdminQueueController().HandleAdminQueueDelete(c)
}

func HandleAdminRunBillReminders(c *fiber.Ctx) error {
	return GetAdminQueueController().HandleRunBillReminders(c)
}

func HandleAdminRunEntitlementRefresh(c *fiber.Ctx) error {
	return GetAdminQueueController().HandleRunEntitlementRefresh(c)
}
