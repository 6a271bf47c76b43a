package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/models"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type UserHandler struct {
	users repository.UserRepository
}

func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrUserNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"user": user})
}

type updateMeReq struct {
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req updateMeReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	current, err := h.users.GetByID(c.Context(), auth.UserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	current.FullName = req.FullName
	current.Phone = req.Phone
	current.AvatarURL = req.AvatarURL
	updated, err := h.users.Update(c.Context(), current)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"user": updated})
}

func (h *UserHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q required")
	}
	users, err := h.users.Search(c.Context(), query, 20)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	// strip to projections; search results don't need full documents
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserProfile{ID: u.ID.Hex(), FullName: u.FullName, AvatarURL: u.AvatarURL})
	}
	return c.JSON(fiber.Map{"users": out})
}
