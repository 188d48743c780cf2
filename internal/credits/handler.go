package credits

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes credit balance, history and purchase endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a credits HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionResponse struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}

// Balance returns the user's current credit balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id": c.Params("userId"),
		"balance": balance,
	})
}

// Transactions lists the user's history, most recent first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	txs, err := h.service.Transactions(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Type:        string(tx.Type),
			Description: tx.Description,
			Timestamp:   tx.Timestamp.UTC().Format(time.RFC3339),
			Status:      string(tx.Status),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

// Catalogue lists purchasable services.
func (h *Handler) Catalogue(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"services": h.service.Catalogue()})
}

type purchaseRequest struct {
	ServiceID string `json:"service_id"`
}

// Purchase buys a catalogue service with credits.
func (h *Handler) Purchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.Purchase(c.UserContext(), c.Params("userId"), req.ServiceID)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInsufficientFunds):
			return fiber.NewError(http.StatusPaymentRequired, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": tx.ID,
		"description":    tx.Description,
		"amount":         tx.Amount,
	})
}

// PlatformAccess reports whether the user meets the minimum-deposit gate.
func (h *Handler) PlatformAccess(c *fiber.Ctx) error {
	ok, err := h.service.CanAccessPlatform(c.UserContext(), c.Params("userId"))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"allowed": ok})
}
