package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tchova-digital/portal/internal/credits"
)

// RegisterCreditRoutes wires balance, history, catalogue and purchases.
func RegisterCreditRoutes(router fiber.Router, h *credits.Handler) {
	router.Get("/credits/services", h.Catalogue)

	user := router.Group("/credits/:userId")
	user.Get("/balance", h.Balance)
	user.Get("/transactions", h.Transactions)
	user.Get("/access", h.PlatformAccess)
	user.Post("/purchases", h.Purchase)
}
