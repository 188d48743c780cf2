package project

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes portal and staff HTTP endpoints for client projects.
type Handler struct {
	service *Service
}

// NewHandler builds a project HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type projectResponse struct {
	ID              string `json:"id"`
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email,omitempty"`
	ClientPhone     string `json:"client_phone,omitempty"`
	ServiceID       string `json:"service_id"`
	ServiceTitle    string `json:"service_title"`
	ServiceCategory string `json:"service_category"`
	PaymentStatus   string `json:"payment_status"`
	PaymentAmount   int64  `json:"payment_amount"`
	ProjectStatus   string `json:"project_status"`
	CreatedAt       string `json:"created_at"`
	ExpiresAt       string `json:"expires_at"`
	Notes           string `json:"notes,omitempty"`
}

// View validates the access token and returns the project it grants.
func (h *Handler) View(c *fiber.Ctx) error {
	res := h.service.Validate(c.UserContext(), c.Params("token"))
	switch {
	case res.Valid:
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"valid":   true,
			"project": toResponse(res.Project),
		})
	case res.Expired:
		return c.Status(http.StatusGone).JSON(fiber.Map{
			"valid":   false,
			"expired": true,
			"error":   res.Err.Error(),
		})
	case errors.Is(res.Err, ErrInvalidFormat):
		return fiber.NewError(http.StatusBadRequest, res.Err.Error())
	case errors.Is(res.Err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, res.Err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, res.Err.Error())
	}
}

type issueRequest struct {
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email"`
	ClientPhone     string `json:"client_phone"`
	ServiceID       string `json:"service_id"`
	ServiceTitle    string `json:"service_title"`
	ServiceCategory string `json:"service_category"`
	PaymentStatus   string `json:"payment_status"`
	PaymentAmount   int64  `json:"payment_amount"`
	Notes           string `json:"notes"`
}

// Issue creates a project and returns its access token and portal link.
// Registered behind staff authentication.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.Issue(c.UserContext(), IssueInput{
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		ServiceID:       req.ServiceID,
		ServiceTitle:    req.ServiceTitle,
		ServiceCategory: req.ServiceCategory,
		PaymentStatus:   PaymentStatus(req.PaymentStatus),
		PaymentAmount:   req.PaymentAmount,
		Notes:           req.Notes,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"project":    toResponse(p),
		"token":      p.Token,
		"access_url": h.service.AccessURL(p.Token),
	})
}

// UpdateStatus advances the project lifecycle stage.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.AdvanceStatus(c.UserContext(), c.Params("projectId"), Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrStatusRegression):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(toResponse(p))
}

// UpdatePayment records a payment status change.
func (h *Handler) UpdatePayment(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	p, err := h.service.SetPaymentStatus(c.UserContext(), c.Params("projectId"), PaymentStatus(req.Status))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(p))
}

func toResponse(p ClientProject) projectResponse {
	return projectResponse{
		ID:              p.ID,
		ClientName:      p.ClientName,
		ClientEmail:     p.ClientEmail,
		ClientPhone:     p.ClientPhone,
		ServiceID:       p.ServiceID,
		ServiceTitle:    p.ServiceTitle,
		ServiceCategory: p.ServiceCategory,
		PaymentStatus:   string(p.PaymentStatus),
		PaymentAmount:   p.PaymentAmount,
		ProjectStatus:   string(p.ProjectStatus),
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:       p.ExpiresAt.UTC().Format(time.RFC3339),
		Notes:           p.Notes,
	}
}
