package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tchova-digital/portal/internal/middleware"
	"github.com/tchova-digital/portal/internal/payments"
)

// RegisterPaymentRoutes wires the payment router. Submissions are
// idempotent when Redis is available: retries with the same
// Idempotency-Key replay the stored outcome instead of charging twice.
func RegisterPaymentRoutes(router fiber.Router, h *payments.Handler, d Deps) {
	group := router.Group("/payments")
	if d.Cache != nil {
		group = router.Group("/payments", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	group.Get("/methods", h.Methods)
	group.Get("/methods/:methodId/fees", h.Fees)
	group.Post("/", h.Process)
	group.Get("/:transactionId", h.Verify)
}
