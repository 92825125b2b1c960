package controllers

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/DedS3t/monopoly-engine/app/models"
	"github.com/DedS3t/monopoly-engine/platform/ownership"
	"github.com/DedS3t/monopoly-engine/platform/players"
	"github.com/DedS3t/monopoly-engine/platform/table"
	"github.com/DedS3t/monopoly-engine/platform/transfer"
	"github.com/DedS3t/monopoly-engine/platform/turn"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const defaultHistory = 50

type History interface {
	History(ctx context.Context, gameID string, limit int) ([]models.TurnEvent, error)
}

type TableController struct {
	Table  *table.Table
	Secret []byte
	// History is nil when no journal is configured.
	History History
	Log     *logrus.Entry
}

func (h *TableController) GetTable(c *fiber.Ctx) error {
	return c.JSON(h.Table.State())
}

func (h *TableController) GetGroups(c *fiber.Ctx) error {
	return c.JSON(h.Table.Groups())
}

func (h *TableController) GetOwnership(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad name"})
	}
	rec, err := h.Table.Ownership(name)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

func (h *TableController) GetHistory(c *fiber.Ctx) error {
	if h.History == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "history disabled"})
	}
	limit := defaultHistory
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad limit"})
		}
		limit = n
	}

	events, err := h.History.History(c.Context(), h.Table.GameID(), limit)
	if err != nil {
		h.Log.WithError(err).Error("Failed reading history")
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(events)
}

func (h *TableController) Roll(c *fiber.Ctx) error {
	return h.act(c, turn.ActionRoll)
}

func (h *TableController) BuyProperty(c *fiber.Ctx) error {
	return h.act(c, turn.ActionBuy)
}

func (h *TableController) PayRent(c *fiber.Ctx) error {
	return h.act(c, turn.ActionPayRent)
}

func (h *TableController) FinishTurn(c *fiber.Ctx) error {
	return h.act(c, turn.ActionFinishTurn)
}

func (h *TableController) act(c *fiber.Ctx, action turn.Action) error {
	player, ok := seat(c, h.Table.GameID())
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	tag, err := h.Table.Do(action, player)
	body := fiber.Map{
		"player": tag.Player,
		"phase":  tag.Phase,
		"legal":  tag.Phase.Legal(),
	}
	if err != nil {
		body["error"] = err.Error()
		return c.Status(statusFor(err)).JSON(body)
	}
	return c.JSON(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, turn.ErrIllegalAction):
		return fiber.StatusBadRequest
	case errors.Is(err, players.ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, ownership.ErrUnknownProperty):
		return fiber.StatusNotFound
	case errors.Is(err, transfer.ErrAlreadyOwned), errors.Is(err, transfer.ErrNotOwned), errors.Is(err, transfer.ErrNotOwnable):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
