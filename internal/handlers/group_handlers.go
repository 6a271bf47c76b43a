package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/whisper-backend/internal/apperr"
	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/models"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
)

type GroupHandler struct {
	groups repository.GroupRepository
}

func NewGroupHandler(groups repository.GroupRepository) *GroupHandler {
	return &GroupHandler{groups: groups}
}

type createGroupReq struct {
	Name     string   `json:"name"`
	Members  []string `json:"members"`
	ImageURL string   `json:"image_url"`
}

func (h *GroupHandler) Create(c *fiber.Ctx) error {
	var req createGroupReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name required")
	}
	creator := auth.UserID(c)
	group := &models.Group{
		Name:      req.Name,
		Members:   req.Members,
		Admins:    []string{creator},
		ImageURL:  req.ImageURL,
		CreatedBy: creator,
	}
	if err := h.groups.Create(c.Context(), group); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) List(c *fiber.Ctx) error {
	groups, err := h.groups.ListForUser(c.Context(), auth.UserID(c))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (h *GroupHandler) Get(c *fiber.Ctx) error {
	group, err := h.memberGroup(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"group": group})
}

type memberReq struct {
	UserID string `json:"user_id"`
}

func (h *GroupHandler) AddMember(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return err
	}
	var req memberReq
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id required")
	}
	if err := h.groups.AddMember(c.Context(), group.ID.Hex(), req.UserID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "member added"})
}

func (h *GroupHandler) RemoveMember(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return err
	}
	var req memberReq
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id required")
	}
	if err := h.groups.RemoveMember(c.Context(), group.ID.Hex(), req.UserID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "member removed"})
}

func (h *GroupHandler) PromoteAdmin(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return err
	}
	var req memberReq
	if err := c.BodyParser(&req); err != nil || req.UserID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_id required")
	}
	if !group.IsMember(req.UserID) {
		return fiber.NewError(fiber.StatusBadRequest, "user is not a member")
	}
	if err := h.groups.PromoteAdmin(c.Context(), group.ID.Hex(), req.UserID); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "admin promoted"})
}

type updateGroupReq struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

func (h *GroupHandler) Update(c *fiber.Ctx) error {
	group, err := h.adminGroup(c)
	if err != nil {
		return err
	}
	var req updateGroupReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if req.Name != "" {
		if err := h.groups.SetName(c.Context(), group.ID.Hex(), req.Name); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}
	if req.ImageURL != "" {
		if err := h.groups.SetImage(c.Context(), group.ID.Hex(), req.ImageURL); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(fiber.Map{"message": "group updated"})
}

func (h *GroupHandler) Leave(c *fiber.Ctx) error {
	group, err := h.memberGroup(c)
	if err != nil {
		return err
	}
	if err := h.groups.RemoveMember(c.Context(), group.ID.Hex(), auth.UserID(c)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"message": "left group"})
}

func (h *GroupHandler) memberGroup(c *fiber.Ctx) (*models.Group, error) {
	group, err := h.loadGroup(c)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(auth.UserID(c)) {
		return nil, fiber.NewError(fiber.StatusForbidden, apperr.ErrNotGroupMember.Error())
	}
	return group, nil
}

func (h *GroupHandler) adminGroup(c *fiber.Ctx) (*models.Group, error) {
	group, err := h.loadGroup(c)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(auth.UserID(c)) {
		return nil, fiber.NewError(fiber.StatusForbidden, apperr.ErrNotGroupAdmin.Error())
	}
	return group, nil
}

func (h *GroupHandler) loadGroup(c *fiber.Ctx) (*models.Group, error) {
	group, err := h.groups.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, apperr.ErrGroupNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return group, nil
}
