package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/notify"
)

const notificationListLimit = 50

type smsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	Type        string `json:"type"`
}

// HandleSendSMS relays one text message through Twilio. Premium only.
func HandleSendSMS(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req smsRequest
	if err := parseBody(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.Message) == "" {
		return apperr.Respond(c, notify.ErrSMSInputRequired)
	}

	svc := notify.NewService(notify.NewTwilioClientFromEnv(), nil, nil, repository.GetGlobalFactory().GetNotificationRepository())
	ctx, cancel := requestContext()
	defer cancel()

	sid, err := svc.SendSMS(ctx, userID, strings.TrimSpace(req.PhoneNumber), req.Message, req.Type)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messageSid": sid})
}

// HandleListNotifications returns the caller's notification log, newest first.
func HandleListNotifications(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	items, err := repository.GetGlobalFactory().GetNotificationRepository().ListByUser(userID, notificationListLimit)
	if err != nil {
		return apperr.Respond(c, storeError(err, "Notification"))
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}
