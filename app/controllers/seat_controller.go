package controllers

import (
	"strconv"

	"github.com/DedS3t/monopoly-engine/app/models"
	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// Seat hands out a token for one seat at the hot-seat table.
func (h *TableController) Seat(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("player"))
	if err != nil || !h.Table.Players.Valid(models.PlayerID(id)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no such seat"})
	}

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["player"] = id
	claims["game_id"] = h.Table.GameID()
	t, err := token.SignedString(h.Secret)
	if err != nil {
		h.Log.WithError(err).Error("Failed signing seat token")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	return c.JSON(fiber.Map{"access_token": t, "player": id})
}

// seat reads the player id out of the token jwtware stored on the request.
// Tokens signed for another game are refused.
func seat(c *fiber.Ctx, gameID string) (models.PlayerID, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return models.NoPlayer, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.NoPlayer, false
	}
	if game, _ := claims["game_id"].(string); game != gameID {
		return models.NoPlayer, false
	}
	// JSON numbers decode as float64
	id, ok := claims["player"].(float64)
	if !ok {
		return models.NoPlayer, false
	}
	return models.PlayerID(id), true
}

func (h *TableController) Whoami(c *fiber.Ctx) error {
	id, ok := seat(c, h.Table.GameID())
	if !ok {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	return c.JSON(fiber.Map{"player": id, "game_id": h.Table.GameID()})
}
