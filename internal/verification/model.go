// Package verification gates sensitive portal actions behind a short-lived
// numeric code delivered out-of-band, layered on top of token access.
package verification

import (
	"errors"
	"time"
)

var (
	// ErrNoCode indicates no code was ever issued (or the last one was
	// superseded) for the project.
	ErrNoCode = errors.New("no verification code found")

	// ErrInvalidFormat indicates the submitted code is not six digits.
	// Checked before any store lookup.
	ErrInvalidFormat = errors.New("invalid code format")

	// ErrCodeMismatch indicates the submitted code did not match the
	// active issuance.
	ErrCodeMismatch = errors.New("incorrect code")

	// ErrAlreadyUsed indicates the active code was consumed by an earlier
	// successful verification. Codes are single-use.
	ErrAlreadyUsed = errors.New("code already used")

	// ErrExpired indicates the active code outlived its validity window.
	ErrExpired = errors.New("code expired")

	// ErrBlocked indicates too many failed attempts; verification stays
	// blocked until the window anchored at issuance elapses.
	ErrBlocked = errors.New("too many attempts")
)

// Code is the stored record of an issued verification code. Only the bcrypt
// hash is persisted; the plaintext goes to the delivery channel and is
// dropped.
type Code struct {
	CodeHash    []byte
	ProjectID   string
	PhoneNumber string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Attempts    int
	Verified    bool
}

// SecureSession records which sensitive actions were already verified for a
// project. It exists only after a successful code check and is treated as
// absent the instant it expires.
type SecureSession struct {
	ProjectID  string    `json:"project_id"`
	VerifiedAt time.Time `json:"verified_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Actions    []string  `json:"actions"`
}

// HasAction reports whether the action was already verified in this session.
func (s SecureSession) HasAction(action string) bool {
	for _, a := range s.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Result is returned to the page layer after a verification attempt.
type Result struct {
	Success           bool
	Err               error
	Blocked           bool
	BlockedUntil      time.Time
	RemainingAttempts int
}

// sensitiveActions is the fixed allow-list of actions that must pass the
// gate. Anything else executes without verification.
var sensitiveActions = map[string]struct{}{
	"view_payment_details":   {},
	"request_project_change": {},
	"download_final_files":   {},
	"approve_milestone":      {},
	"generate_new_link":      {},
	"update_contact_info":    {},
}

// RequiresVerification reports whether an action must pass the gate.
func RequiresVerification(action string) bool {
	_, ok := sensitiveActions[action]
	return ok
}
