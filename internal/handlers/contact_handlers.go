package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/models"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type ContactHandler struct {
	contacts repository.ContactRepository
	users    repository.UserRepository
}

func NewContactHandler(contacts repository.ContactRepository, users repository.UserRepository) *ContactHandler {
	return &ContactHandler{contacts: contacts, users: users}
}

type createContactReq struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// Create adds an address-book entry. If the email or phone matches a
// registered user, the contact is linked to that identity so realtime
// name overrides and chat routing work.
func (h *ContactHandler) Create(c *fiber.Ctx) error {
	var req createContactReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Email == "" && req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email or phone required")
	}

	contact := &models.Contact{
		Owner:       auth.UserID(c),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
	}
	linked, err := h.users.FindByEmailOrPhone(c.Context(), req.Email, req.Phone)
	if err == nil {
		contact.LinkedUser = linked.ID.Hex()
		contact.Registered = true
	} else if !errors.Is(err, apperr.ErrUserNotFound) {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	if err := h.contacts.Create(c.Context(), contact); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"contact": contact})
}

func (h *ContactHandler) List(c *fiber.Ctx) error {
	contacts, err := h.contacts.ListByOwner(c.Context(), auth.UserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

type updateContactReq struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

func (h *ContactHandler) Update(c *fiber.Ctx) error {
	contact, err := h.ownedContact(c)
	if err != nil {
		return err
	}
	var req updateContactReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	contact.DisplayName = req.DisplayName
	contact.Email = req.Email
	contact.Phone = req.Phone
	if err := h.contacts.Update(c.Context(), contact); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"contact": contact})
}

func (h *ContactHandler) Delete(c *fiber.Ctx) error {
	contact, err := h.ownedContact(c)
	if err != nil {
		return err
	}
	if err := h.contacts.Delete(c.Context(), contact.ID.Hex()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ContactHandler) ownedContact(c *fiber.Ctx) (*models.Contact, error) {
	contact, err := h.contacts.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrContactNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if contact.Owner != auth.UserID(c) {
		return nil, fiber.NewError(fiber.StatusForbidden, "not your contact")
	}
	return contact, nil
}
