package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/app/models"
	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/usercontext"
)

const adminUsersPerPage = 20

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos *repository.Repositories
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

type adminUserUpdate struct {
	Role   string `json:"role"`
	Status string `json:"status"`
	Plan   string `json:"plan"`
}

// HandleUsers lists users page by page together with their plan.
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * adminUsersPerPage

	total, err := ac.repos.User.Count()
	if err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}
	users, err := ac.repos.User.List(offset, adminUsersPerPage)
	if err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}

	items := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		plan := models.PlanFree
		if us, err := ac.repos.Settings.GetOrCreate(u.ID); err == nil {
			plan = us.Plan
		}
		items = append(items, fiber.Map{
			"id":            u.ID,
			"name":          u.Name,
			"email":         u.Email,
			"role":          u.Role,
			"status":        u.Status,
			"plan":          plan,
			"created_at":    u.CreatedAt,
			"last_login_at": formatTimePtr(u.LastLoginAt),
		})
	}

	totalPages := int(total) / adminUsersPerPage
	if int(total)%adminUsersPerPage > 0 {
		totalPages++
	}
	return c.JSON(fiber.Map{
		"items":       items,
		"total":       total,
		"page":        page,
		"total_pages": totalPages,
	})
}

// HandleUserUpdate changes role, status or plan of a user. Admins cannot
// demote or disable themselves.
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req adminUserUpdate
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}

	user, err := ac.repos.User.GetByID(id)
	if err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}
	self := usercontext.GetUserID(c) == user.ID

	if role := strings.TrimSpace(req.Role); role != "" {
		if self && role != models.ROLE_ADMIN {
			return apperr.Respond(c, apperr.Validation("You cannot remove your own admin role"))
		}
		user.Role = role
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		if self && status != models.STATUS_ACTIVE {
			return apperr.Respond(c, apperr.Validation("You cannot disable your own account"))
		}
		user.Status = status
	}
	if err := models.Validate(struct {
		Role   string `validate:"oneof=user admin"`
		Status string `validate:"oneof=active disabled"`
	}{user.Role, user.Status}); err != nil {
		return apperr.Respond(c, validationError(err))
	}
	if err := ac.repos.User.Update(user); err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}

	if plan := strings.ToLower(strings.TrimSpace(req.Plan)); plan != "" {
		if plan != models.PlanFree && plan != models.PlanPremium {
			return apperr.Respond(c, apperr.Validation("Invalid value for plan"))
		}
		us, err := ac.repos.Settings.GetOrCreate(user.ID)
		if err != nil {
			return apperr.Respond(c, storeError(err, "Settings"))
		}
		us.Plan = plan
		if err := ac.repos.Settings.Save(us); err != nil {
			return apperr.Respond(c, storeError(err, "Settings"))
		}
	}

	log.Infof("[Admin] User %d updated by admin %d", user.ID, usercontext.GetUserID(c))
	return c.JSON(fiber.Map{"id": user.ID, "role": user.Role, "status": user.Status})
}

// HandleUserDelete retires another account along with its ledger.
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if id == usercontext.GetUserID(c) {
		return apperr.Respond(c, apperr.Validation("You cannot delete your own account"))
	}
	if _, err := ac.repos.User.GetByID(id); err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}
	if err := ac.repos.User.Delete(id); err != nil {
		return apperr.Respond(c, storeError(err, "User"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
