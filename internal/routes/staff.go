package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tchova-digital/portal/internal/project"
)

// RegisterStaffRoutes wires project administration behind the staff key:
// issuing access links and advancing project or payment status.
func RegisterStaffRoutes(router fiber.Router, projects *project.Handler, auth fiber.Handler) {
	staff := router.Group("/staff", auth)

	staff.Post("/projects", projects.Issue)
	staff.Patch("/projects/:projectId/status", projects.UpdateStatus)
	staff.Patch("/projects/:projectId/payment", projects.UpdatePayment)
}
