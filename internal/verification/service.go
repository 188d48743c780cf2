package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tchova-digital/portal/internal/notification"
)

const codeLength = 6

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Options tune the gate's time windows and attempt budget.
type Options struct {
	CodeTTL     time.Duration
	MaxAttempts int
	BlockTTL    time.Duration
	SessionTTL  time.Duration
}

func (o Options) withDefaults() Options {
	if o.CodeTTL <= 0 {
		o.CodeTTL = 5 * time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BlockTTL <= 0 {
		o.BlockTTL = 15 * time.Minute
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = 10 * time.Minute
	}
	return o
}

// Service runs the verification state machine for sensitive portal actions.
type Service struct {
	codes    CodeStore
	sessions SessionStore
	notifier notification.Notifier
	opts     Options
}

// NewService builds a verification service.
func NewService(codes CodeStore, sessions SessionStore, notifier notification.Notifier, opts Options) *Service {
	return &Service{codes: codes, sessions: sessions, notifier: notifier, opts: opts.withDefaults()}
}

// Issued reports metadata about a freshly issued code. The plaintext code
// goes to the notifier only.
type Issued struct {
	ProjectID   string
	PhoneNumber string
	ExpiresAt   time.Time
}

// IssueCode creates a new code for the project, superseding any prior one,
// and hands the plaintext to the out-of-band delivery channel.
func (s *Service) IssueCode(ctx context.Context, projectID, phoneNumber string) (Issued, error) {
	if projectID == "" {
		return Issued{}, fmt.Errorf("project id is required")
	}

	plain, err := generateCode()
	if err != nil {
		return Issued{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return Issued{}, err
	}

	now := time.Now().UTC()
	code := Code{
		CodeHash:    hash,
		ProjectID:   projectID,
		PhoneNumber: phoneNumber,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.opts.CodeTTL),
	}
	if err := s.codes.Put(ctx, code); err != nil {
		return Issued{}, err
	}

	if s.notifier != nil {
		body := notification.CodeMessage(plain, formatValidity(s.opts.CodeTTL))
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindVerificationCode,
			Destination: phoneNumber,
			Body:        body,
		}); err != nil {
			return Issued{}, fmt.Errorf("deliver code: %w", err)
		}
	}

	return Issued{ProjectID: projectID, PhoneNumber: phoneNumber, ExpiresAt: code.ExpiresAt}, nil
}

// Verify runs one attempt of the state machine for the project's active
// code. On success the code becomes terminally consumed and a secure
// session opens.
func (s *Service) Verify(ctx context.Context, projectID, input string) Result {
	if !codePattern.MatchString(input) {
		return Result{Err: ErrInvalidFormat}
	}

	code, err := s.codes.Get(ctx, projectID)
	if err != nil {
		return Result{Err: err}
	}

	if code.Verified {
		return Result{Err: ErrAlreadyUsed}
	}

	now := time.Now().UTC()

	// Block check comes before the attempt increment so a blocked caller
	// cannot burn the window down by retrying.
	if code.Attempts >= s.opts.MaxAttempts {
		blockedUntil := code.CreatedAt.Add(s.opts.BlockTTL)
		if now.Before(blockedUntil) {
			return Result{
				Err:          ErrBlocked,
				Blocked:      true,
				BlockedUntil: blockedUntil,
			}
		}
		// Block elapsed: the old issuance stays dead, a new code is the
		// only way forward.
		return Result{Err: ErrExpired}
	}

	if !now.Before(code.ExpiresAt) {
		return Result{Err: ErrExpired}
	}

	attempts, err := s.codes.IncrementAttempts(ctx, projectID)
	if err != nil {
		return Result{Err: err}
	}

	if bcrypt.CompareHashAndPassword(code.CodeHash, []byte(input)) != nil {
		remaining := s.opts.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		res := Result{Err: ErrCodeMismatch, RemainingAttempts: remaining}
		if remaining == 0 {
			res.Blocked = true
			res.BlockedUntil = code.CreatedAt.Add(s.opts.BlockTTL)
		}
		return res
	}

	if err := s.codes.MarkVerified(ctx, projectID); err != nil {
		return Result{Err: err}
	}

	session := SecureSession{
		ProjectID:  projectID,
		VerifiedAt: now,
		ExpiresAt:  now.Add(s.opts.SessionTTL),
		Actions:    []string{},
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return Result{Err: err}
	}

	return Result{Success: true}
}

// Decision is the outcome of checking whether an action may run now.
type Decision struct {
	Action   string
	Required bool
	// Allowed is true when the action either needs no verification or was
	// already verified in a live secure session.
	Allowed bool
}

// CheckAction decides whether an action can proceed or must go through the
// gate first.
func (s *Service) CheckAction(ctx context.Context, projectID, action string) (Decision, error) {
	if !RequiresVerification(action) {
		return Decision{Action: action, Allowed: true}, nil
	}

	session, found, err := s.sessions.Get(ctx, projectID)
	if err != nil {
		return Decision{}, err
	}
	if found && session.HasAction(action) {
		return Decision{Action: action, Required: true, Allowed: true}, nil
	}
	return Decision{Action: action, Required: true}, nil
}

// MarkActionVerified records an approved action on the live session, if any.
func (s *Service) MarkActionVerified(ctx context.Context, projectID, action string) error {
	return s.sessions.AddAction(ctx, projectID, action)
}

// Session returns the live secure session for the project, if one exists.
func (s *Service) Session(ctx context.Context, projectID string) (SecureSession, bool, error) {
	return s.sessions.Get(ctx, projectID)
}

// Logout destroys the secure session before its natural expiry.
func (s *Service) Logout(ctx context.Context, projectID string) error {
	return s.sessions.Delete(ctx, projectID)
}

// generateCode draws each digit from a cryptographically secure source.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	digits := make([]byte, codeLength)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return string(digits), nil
}

func formatValidity(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d minutos", int(d.Minutes()))
	}
	return d.String()
}
