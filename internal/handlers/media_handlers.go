package handlers

import (
	"io"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/storage"
)

const maxUploadBytes = 25 << 20 // 25 MiB

type MediaHandler struct {
	store *storage.S3Store
}

func NewMediaHandler(store *storage.S3Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload accepts a multipart file, stores it under a uuid key scoped to the
// uploader, and returns the URL/key clients put in fileUrl fields.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "file required")
	}
	if fileHeader.Size > maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	contentType := fileHeader.Header.Get(fiber.HeaderContentType)
	key := auth.UserID(c) + "/" + uuid.NewString() + filepath.Ext(fileHeader.Filename)

	var loc string
	if storage.IsImage(contentType) {
		loc, err = h.store.UploadImage(c.Context(), key, contentType, data)
	} else {
		loc, err = h.store.Upload(c.Context(), key, contentType, data)
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": loc, "key": key})
}

// Presign returns a time-limited download URL for a stored object.
func (h *MediaHandler) Presign(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "key required")
	}
	url, err := h.store.PresignURL(c.Context(), key, 15*time.Minute)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"url": url})
}
