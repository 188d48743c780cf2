package payments

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the payment routing endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a payments HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type methodResponse struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	SupportedCurrencies []string `json:"supported_currencies"`
	MinAmount           int64    `json:"min_amount"`
	MaxAmount           int64    `json:"max_amount"`
	ProcessingFee       float64  `json:"processing_fee"`
}

// Methods lists the enabled payment methods.
func (h *Handler) Methods(c *fiber.Ctx) error {
	methods := h.service.Methods()
	out := make([]methodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, methodResponse{
			ID:                  m.ID,
			Name:                m.Name,
			Type:                string(m.Type),
			Description:         m.Description,
			SupportedCurrencies: m.Config.SupportedCurrencies,
			MinAmount:           m.Config.MinAmount,
			MaxAmount:           m.Config.MaxAmount,
			ProcessingFee:       m.Config.ProcessingFee,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"methods": out})
}

// Fees returns the processing fee and net amount for a method and amount.
func (h *Handler) Fees(c *fiber.Ctx) error {
	amount := int64(c.QueryInt("amount"))
	fees, err := h.service.Fees(c.Params("methodId"), amount)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"amount":     amount,
		"fee":        fees.Fee,
		"net_amount": fees.NetAmount,
	})
}

type processRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	MethodID    string `json:"method_id"`
	UserID      string `json:"user_id"`
	Description string `json:"description"`
}

type resultResponse struct {
	TransactionID    string `json:"transaction_id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Method           string `json:"method"`
	Timestamp        string `json:"timestamp"`
	ConfirmationCode string `json:"confirmation_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

func toResultResponse(result Result) resultResponse {
	return resultResponse{
		TransactionID:    result.TransactionID,
		Status:           string(result.Status),
		Amount:           result.Amount,
		Currency:         result.Currency,
		Method:           result.Method,
		Timestamp:        result.Timestamp.UTC().Format(time.RFC3339),
		ConfirmationCode: result.ConfirmationCode,
		ErrorMessage:     result.ErrorMessage,
	}
}

// Process dispatches a payment request to its provider.
func (h *Handler) Process(c *fiber.Ctx) error {
	var req processRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Process(c.UserContext(), Request{
		Amount:      req.Amount,
		Currency:    req.Currency,
		MethodID:    req.MethodID,
		UserID:      req.UserID,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMethodNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrBelowMinimum), errors.Is(err, ErrAboveMaximum), errors.Is(err, ErrUnsupportedCurrency):
			return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrProviderTimeout):
			return c.Status(http.StatusGatewayTimeout).JSON(toResultResponse(result))
		case errors.Is(err, ErrProviderDeclined):
			return c.Status(http.StatusBadGateway).JSON(toResultResponse(result))
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(toResultResponse(result))
}

// Verify reports the stored outcome for a transaction id.
func (h *Handler) Verify(c *fiber.Ctx) error {
	result, err := h.service.Verify(c.UserContext(), c.Params("transactionId"))
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResultResponse(result))
}
