// handlers/notifications.go - Notification inbox endpoints
package handlers

import (
	"hackmate/middleware"
	"hackmate/utils"

	"github.com/gofiber/fiber/v2"
)

const maxNotificationPage = 100

// GetNotifications lists the caller's notifications, newest first
// GET /api/notifications?unread=true&limit=20
func GetNotifications(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := utils.QueryInt(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > maxNotificationPage {
		limit = maxNotificationPage
	}

	notifications, err := notificationService.ListForUser(c.UserContext(), userID, utils.QueryBool(c, "unread"), limit)
	if err != nil {
		return respondError(c, err)
	}

	return utils.JSONSuccess(c, fiber.Map{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkNotificationRead flags a notification as read
// PUT /api/notifications/:id/read
func MarkNotificationRead(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := notificationService.MarkRead(c.UserContext(), userID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return utils.JSONSuccess(c, fiber.Map{"message": "Notification marked as read"})
}
