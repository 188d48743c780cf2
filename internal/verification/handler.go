package verification

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tchova-digital/portal/internal/project"
)

// Handler exposes the verification gate over HTTP. Every route resolves the
// portal token first; the gate only exists inside an already
// token-authenticated page.
type Handler struct {
	service  *Service
	projects *project.Service
}

// NewHandler builds a verification HTTP handler.
func NewHandler(service *Service, projects *project.Service) *Handler {
	return &Handler{service: service, projects: projects}
}

func (h *Handler) resolveProject(c *fiber.Ctx) (project.ClientProject, error) {
	res := h.projects.Validate(c.UserContext(), c.Params("token"))
	if res.Valid {
		return res.Project, nil
	}
	switch {
	case res.Expired:
		return project.ClientProject{}, fiber.NewError(http.StatusGone, res.Err.Error())
	case errors.Is(res.Err, project.ErrInvalidFormat):
		return project.ClientProject{}, fiber.NewError(http.StatusBadRequest, res.Err.Error())
	case errors.Is(res.Err, project.ErrNotFound):
		return project.ClientProject{}, fiber.NewError(http.StatusNotFound, res.Err.Error())
	default:
		return project.ClientProject{}, fiber.NewError(http.StatusInternalServerError, res.Err.Error())
	}
}

// IssueCode sends a fresh verification code to the client's registered
// phone. The code itself never appears in the response.
func (h *Handler) IssueCode(c *fiber.Ctx) error {
	p, err := h.resolveProject(c)
	if err != nil {
		return err
	}

	issued, err := h.service.IssueCode(c.UserContext(), p.ID, p.ClientPhone)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"sent_to":    maskPhone(issued.PhoneNumber),
		"expires_at": issued.ExpiresAt.Format(time.RFC3339),
	})
}

type verifyRequest struct {
	Code   string `json:"code"`
	Action string `json:"action"`
}

// Verify checks the submitted code and, on success, records the requested
// action on the new secure session.
func (h *Handler) Verify(c *fiber.Ctx) error {
	p, err := h.resolveProject(c)
	if err != nil {
		return err
	}

	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res := h.service.Verify(c.UserContext(), p.ID, req.Code)
	if res.Success {
		if req.Action != "" && RequiresVerification(req.Action) {
			if err := h.service.MarkActionVerified(c.UserContext(), p.ID, req.Action); err != nil {
				return fiber.NewError(http.StatusInternalServerError, err.Error())
			}
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"success": true})
	}

	body := fiber.Map{"success": false, "error": res.Err.Error()}
	if res.RemainingAttempts > 0 || errors.Is(res.Err, ErrCodeMismatch) {
		body["remaining_attempts"] = res.RemainingAttempts
	}
	if res.Blocked {
		body["blocked"] = true
		body["blocked_until"] = res.BlockedUntil.Format(time.RFC3339)
	}

	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(res.Err, ErrInvalidFormat):
		status = http.StatusBadRequest
	case errors.Is(res.Err, ErrNoCode):
		status = http.StatusNotFound
	case res.Blocked:
		status = http.StatusTooManyRequests
	case errors.Is(res.Err, ErrExpired), errors.Is(res.Err, ErrAlreadyUsed):
		status = http.StatusGone
	}
	return c.Status(status).JSON(body)
}

// CheckAction reports whether an action may run now or needs verification.
func (h *Handler) CheckAction(c *fiber.Ctx) error {
	p, err := h.resolveProject(c)
	if err != nil {
		return err
	}

	dec, err := h.service.CheckAction(c.UserContext(), p.ID, c.Params("action"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"action":                dec.Action,
		"requires_verification": dec.Required,
		"allowed":               dec.Allowed,
	})
}

// Logout destroys the project's secure session.
func (h *Handler) Logout(c *fiber.Ctx) error {
	p, err := h.resolveProject(c)
	if err != nil {
		return err
	}
	if err := h.service.Logout(c.UserContext(), p.ID); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// maskPhone hides all but the last three digits.
func maskPhone(phone string) string {
	if len(phone) <= 3 {
		return phone
	}
	masked := []byte(phone)
	for i := 0; i < len(masked)-3; i++ {
		if masked[i] >= '0' && masked[i] <= '9' {
			masked[i] = '*'
		}
	}
	return string(masked)
}
