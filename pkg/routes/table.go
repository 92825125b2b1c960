package routes

import (
	"github.com/DedS3t/monopoly-engine/app/controllers"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
)

func TableRoutes(a *fiber.App, h *controllers.TableController) {
	seated := jwtware.New(jwtware.Config{
		SigningKey: h.Secret,
	})

	route := a.Group("/table")
	route.Get("/", h.GetTable)
	route.Get("/groups", h.GetGroups)
	route.Get("/ownership/:name", h.GetOwnership)
	route.Get("/history", h.GetHistory)

	route.Post("/seat/:player", h.Seat)
	route.Get("/seat", seated, h.Whoami)

	route.Post("/roll", seated, h.Roll)
	route.Post("/buy", seated, h.BuyProperty)
	route.Post("/rent", seated, h.PayRent)
	route.Post("/finish", seated, h.FinishTurn)
}
