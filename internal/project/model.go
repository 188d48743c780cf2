package project

import "time"

// PaymentStatus describes how much of the agreed price has been settled.
type PaymentStatus string

const (
	PaymentEntry50 PaymentStatus = "entry-50"
	PaymentFull    PaymentStatus = "full"
	PaymentFinal   PaymentStatus = "final"
)

// Status is the delivery stage of a client project. Stages are strictly
// ordered and only ever advance.
type Status string

const (
	StatusInitiated     Status = "initiated"
	StatusInDevelopment Status = "in_development"
	StatusInReview      Status = "in_review"
	StatusCompleted     Status = "completed"
)

// statusOrder maps each stage to its position in the lifecycle.
var statusOrder = map[Status]int{
	StatusInitiated:     0,
	StatusInDevelopment: 1,
	StatusInReview:      2,
	StatusCompleted:     3,
}

// Known reports whether s is a recognised project status.
func (s Status) Known() bool {
	_, ok := statusOrder[s]
	return ok
}

// Before reports whether s precedes other in the project lifecycle.
func (s Status) Before(other Status) bool {
	return statusOrder[s] < statusOrder[other]
}

// Known reports whether p is a recognised payment status.
func (p PaymentStatus) Known() bool {
	switch p {
	case PaymentEntry50, PaymentFull, PaymentFinal:
		return true
	default:
		return false
	}
}

// ClientProject is a staff-created engagement a client can view through the
// portal by presenting its access token.
type ClientProject struct {
	ID              string
	Token           string
	ClientName      string
	ClientEmail     string
	ClientPhone     string
	ServiceID       string
	ServiceTitle    string
	ServiceCategory string
	PaymentStatus   PaymentStatus
	PaymentAmount   int64
	ProjectStatus   Status
	CreatedAt       time.Time
	ExpiresAt       time.Time
	Notes           string
}

// Accessible reports whether the project can still be opened at the given
// instant. Expiry is a derived predicate, never a stored state transition.
func (p ClientProject) Accessible(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}
