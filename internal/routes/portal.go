package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tchova-digital/portal/internal/project"
	"github.com/tchova-digital/portal/internal/verification"
)

// RegisterPortalRoutes wires the token-gated client portal: project view,
// verification codes, secure-action checks and logout.
func RegisterPortalRoutes(router fiber.Router, projects *project.Handler, gate *verification.Handler, codeLimit fiber.Handler) {
	portal := router.Group("/portal/:token")

	portal.Get("/", projects.View)

	portal.Post("/verification/codes", codeLimit, gate.IssueCode)
	portal.Post("/verification/verify", gate.Verify)
	portal.Get("/actions/:action", gate.CheckAction)
	portal.Post("/logout", gate.Logout)
}
