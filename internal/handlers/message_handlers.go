package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/models"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type MessageHandler struct {
	messages repository.MessageRepository
	groups   repository.GroupRepository
}

func NewMessageHandler(messages repository.MessageRepository, groups repository.GroupRepository) *MessageHandler {
	return &MessageHandler{messages: messages, groups: groups}
}

// DirectHistory returns the conversation between the caller and the peer,
// oldest first. Messages that never got a realtime push show up here.
func (h *MessageHandler) DirectHistory(c *fiber.Ctx) error {
	peer := c.Params("peerId")
	if peer == "" {
		return fiber.NewError(fiber.StatusBadRequest, "peer id required")
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	msgs, err := h.messages.DirectHistory(c.Context(), auth.UserID(c), peer, page, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (h *MessageHandler) GroupHistory(c *fiber.Ctx) error {
	groupID := c.Params("groupId")
	group, err := h.groups.GetByID(c.Context(), groupID)
	if err != nil {
		if errors.Is(err, apperr.ErrGroupNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !group.IsMember(auth.UserID(c)) {
		return fiber.NewError(fiber.StatusForbidden, apperr.ErrNotGroupMember.Error())
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	msgs, err := h.messages.GroupHistory(c.Context(), groupID, page, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

type deliveryReq struct {
	Status string `json:"status"`
}

// UpdateDelivery marks a message received or read for the calling user.
func (h *MessageHandler) UpdateDelivery(c *fiber.Ctx) error {
	var req deliveryReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Status != models.DeliveryReceived && req.Status != models.DeliveryRead {
		return fiber.NewError(fiber.StatusBadRequest, "status must be received or read")
	}
	if err := h.messages.UpdateDelivery(c.Context(), c.Params("id"), auth.UserID(c), req.Status); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "status updated"})
}
