package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/cache"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type NotificationHandler struct {
	notifications repository.NotificationRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	items, err := h.notifications.ListForUser(c.Context(), auth.UserID(c), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"notifications": items})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.Context(), c.Params("id"), auth.UserID(c)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "marked read"})
}

type PresenceHandler struct {
	store *cache.Store
}

func NewPresenceHandler(store *cache.Store) *PresenceHandler {
	return &PresenceHandler{store: store}
}

// Check reports online status from the Redis presence mirror.
func (h *PresenceHandler) Check(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user id required")
	}
	return c.JSON(fiber.Map{"user_id": userID, "online": h.store.IsOnline(c.Context(), userID)})
}
