package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/config"
	"github.com/example/tandoor/internal/middleware"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// domainError translates an engine failure into a transport error while
// keeping its message; non-domain errors bubble up as 500s.
func domainError(err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return fiber.NewError(apperr.HTTPStatus(err), e.Message)
	}
	return err
}

// AuthHandler bundles dependencies for staff authentication endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates a staff member and issues a role-carrying token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusUnauthorized, "account disabled")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
			"role":      user.Role,
		},
		"token": token,
	})
}

type createStaffRequest struct {
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// CreateStaff registers a new staff account. Admin only (enforced by the
// route's role middleware).
func (h *AuthHandler) CreateStaff(c *fiber.Ctx) error {
	var req createStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}
	if !req.Role.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var existing models.User
	if err := h.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "username already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: passwordHash,
		Role:         req.Role,
		IsActive:     true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return domainError(apperr.FromDB(err, "user"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName,
			"role":      user.Role,
		},
	})
}

// Me returns the authenticated staff member.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}
