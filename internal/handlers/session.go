package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// SessionHandler manages register sessions. Orders can only be opened
// against the currently open session.
type SessionHandler struct {
	db *gorm.DB
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(db *gorm.DB) *SessionHandler {
	return &SessionHandler{db: db}
}

type openSessionRequest struct {
	OpeningFloat int64 `json:"opening_float"`
}

// OpenSession starts a new register shift. Only one session may be open
// at a time.
func (h *SessionHandler) OpenSession(c *fiber.Ctx) error {
	userID, _, err := currentActor(c)
	if err != nil {
		return err
	}

	var req openSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.OpeningFloat < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "opening_float must not be negative")
	}

	var open int64
	if err := h.db.Model(&models.RegisterSession{}).
		Where("closed_at IS NULL").Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return fiber.NewError(fiber.StatusConflict, "a register session is already open")
	}

	session := models.RegisterSession{
		OpenedByID:   userID,
		OpenedAt:     time.Now(),
		OpeningFloat: req.OpeningFloat,
	}
	if err := h.db.Create(&session).Error; err != nil {
		return domainError(apperr.FromDB(err, "register session"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": session})
}

// CurrentSession returns the open session, or 404 when the register is
// closed.
func (h *SessionHandler) CurrentSession(c *fiber.Ctx) error {
	var session models.RegisterSession
	if err := h.db.Where("closed_at IS NULL").
		Order("opened_at desc").
		First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "no open register session")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}

// CloseSession ends a register shift. Open orders do not block closing;
// they remain settleable afterwards, only new orders are refused.
func (h *SessionHandler) CloseSession(c *fiber.Ctx) error {
	userID, _, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var session models.RegisterSession
	if err := h.db.First(&session, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "register session"))
	}
	if !session.Open() {
		return fiber.NewError(fiber.StatusConflict, "session is already closed")
	}

	now := time.Now()
	session.ClosedAt = &now
	session.ClosedByID = &userID
	if err := h.db.Model(&session).
		Updates(map[string]any{"closed_at": now, "closed_by_id": userID}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": session})
}

// ListSessions returns paginated register sessions, newest first.
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var sessions []models.RegisterSession
	var total int64

	if err := h.db.Model(&models.RegisterSession{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Order("opened_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&sessions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    sessions,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
