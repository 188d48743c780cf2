package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tchova-digital/portal/internal/token"
)

var (
	// ErrInvalidFormat indicates the presented token is malformed. Lookup is
	// never attempted for malformed input.
	ErrInvalidFormat = errors.New("invalid token format")

	// ErrExpired indicates the token matched a project whose access window
	// has closed.
	ErrExpired = errors.New("token expired")

	// ErrStatusRegression indicates an attempt to move a project to an
	// earlier lifecycle stage.
	ErrStatusRegression = errors.New("project status cannot move backwards")
)

// Service issues and validates portal access tokens.
type Service struct {
	repo        Repository
	expiryDays  int
	tokenLength int
	baseURL     string
}

// NewService builds a project service. expiryDays controls how long issued
// tokens remain valid.
func NewService(repo Repository, expiryDays int, baseURL string) *Service {
	if expiryDays <= 0 {
		expiryDays = 90
	}
	return &Service{repo: repo, expiryDays: expiryDays, tokenLength: token.DefaultLength, baseURL: baseURL}
}

// Validation is the outcome of checking an access token. Exactly one of
// Valid or Err is meaningful; Expired distinguishes a dead link from a
// wrong one so the page layer can render different guidance.
type Validation struct {
	Valid   bool
	Expired bool
	Project ClientProject
	Err     error
}

// Validate checks a token and returns the project it grants access to.
// Read-only: repeated calls with the same token and clock yield the same
// result.
func (s *Service) Validate(ctx context.Context, tok string) Validation {
	if !token.ValidFormat(tok) {
		return Validation{Err: ErrInvalidFormat}
	}

	p, err := s.repo.FindByToken(ctx, tok)
	if err != nil {
		return Validation{Err: err}
	}

	if !p.Accessible(time.Now().UTC()) {
		return Validation{Expired: true, Err: ErrExpired}
	}

	return Validation{Valid: true, Project: p}
}

// IssueInput captures staff-provided data for a new client project.
type IssueInput struct {
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	ServiceID       string
	ServiceTitle    string
	ServiceCategory string
	PaymentStatus   PaymentStatus
	PaymentAmount   int64
	Notes           string
}

// Issue creates a project with a fresh access token expiring after the
// configured number of days. Staff-side only; clients never mutate projects.
func (s *Service) Issue(ctx context.Context, input IssueInput) (ClientProject, error) {
	if input.ClientName == "" {
		return ClientProject{}, fmt.Errorf("client name is required")
	}
	if input.PaymentAmount <= 0 {
		return ClientProject{}, fmt.Errorf("payment amount must be positive")
	}
	if input.PaymentStatus == "" {
		input.PaymentStatus = PaymentEntry50
	}
	if !input.PaymentStatus.Known() {
		return ClientProject{}, fmt.Errorf("unknown payment status %q", input.PaymentStatus)
	}

	tok, err := token.Generate(s.tokenLength)
	if err != nil {
		return ClientProject{}, err
	}

	now := time.Now().UTC()
	p := ClientProject{
		ID:              uuid.NewString(),
		Token:           tok,
		ClientName:      input.ClientName,
		ClientEmail:     input.ClientEmail,
		ClientPhone:     input.ClientPhone,
		ServiceID:       input.ServiceID,
		ServiceTitle:    input.ServiceTitle,
		ServiceCategory: input.ServiceCategory,
		PaymentStatus:   input.PaymentStatus,
		PaymentAmount:   input.PaymentAmount,
		ProjectStatus:   StatusInitiated,
		CreatedAt:       now,
		ExpiresAt:       now.AddDate(0, 0, s.expiryDays),
		Notes:           input.Notes,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return ClientProject{}, err
	}

	return p, nil
}

// AdvanceStatus moves a project to a later lifecycle stage. Regressions and
// unknown stages are rejected.
func (s *Service) AdvanceStatus(ctx context.Context, id string, next Status) (ClientProject, error) {
	if !next.Known() {
		return ClientProject{}, fmt.Errorf("unknown project status %q", next)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ClientProject{}, err
	}
	if next.Before(p.ProjectStatus) {
		return ClientProject{}, ErrStatusRegression
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return ClientProject{}, err
	}
	p.ProjectStatus = next
	return p, nil
}

// SetPaymentStatus updates the settled portion of the project price.
func (s *Service) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus) (ClientProject, error) {
	if !status.Known() {
		return ClientProject{}, fmt.Errorf("unknown payment status %q", status)
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ClientProject{}, err
	}

	if err := s.repo.UpdatePayment(ctx, id, status); err != nil {
		return ClientProject{}, err
	}
	p.PaymentStatus = status
	return p, nil
}

// AccessURL returns the portal deep link for a project token.
func (s *Service) AccessURL(tok string) string {
	return token.AccessURL(s.baseURL, tok)
}
