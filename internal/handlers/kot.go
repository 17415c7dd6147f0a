package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/services"
)

// KOTHandler exposes kitchen ticket printing.
type KOTHandler struct {
	kot *services.KOTService
}

// NewKOTHandler constructs KOTHandler.
func NewKOTHandler(kot *services.KOTService) *KOTHandler {
	return &KOTHandler{kot: kot}
}

type printKOTRequest struct {
	SplitByStation bool `json:"split_by_station"`
	ReprintAll     bool `json:"reprint_all"`
}

// PrintKOT builds and commits a kitchen ticket batch for an order. A
// "nothing new to print" outcome is reported as a benign no-op, not a
// failure.
func (h *KOTHandler) PrintKOT(c *fiber.Ctx) error {
	userID, role, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req printKOTRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	batch, err := h.kot.PrintKOT(id, req.SplitByStation, req.ReprintAll, services.Actor{ID: userID, Role: role})
	if err != nil {
		if errors.Is(err, apperr.ErrNothingToPrint) {
			return c.JSON(fiber.Map{
				"success": true,
				"data":    nil,
				"message": "nothing new to print",
			})
		}
		return domainError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": batch})
}

// ListPrints returns the order's immutable KOT print history.
func (h *KOTHandler) ListPrints(c *fiber.Ctx) error {
	id, err := orderID(c)
	if err != nil {
		return err
	}

	records, err := h.kot.ListPrints(id)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": records})
}
