package services

import (
	"errors"
	"fmt"

	"github.com/renren-chavez/MatchUpBack/internal/schedule"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrCoachNotFound          = errors.New("coach not found")
	ErrCoachNotBookable       = errors.New("coach is not accepting bookings")
	ErrSportNotOffered        = errors.New("sport not offered by this coach")
	ErrSessionInPast          = errors.New("session time is in the past")
)

// PolicyViolationError reports a request outside the coach's availability
// policy, carrying the blocked window for user-facing messaging.
type PolicyViolationError struct {
	Violation *schedule.Violation
}

func (e *PolicyViolationError) Error() string {
	return e.Violation.Error()
}

// ConflictError reports an overlap with an existing occupying booking,
// identified for message construction.
type ConflictError struct {
	BookingReference string
	SessionDate      string
	SessionTime      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"requested time conflicts with an existing booking on %s at %s",
		e.SessionDate, e.SessionTime,
	)
}

// PaymentError reports a ledger rule violation; nothing is persisted when
// one is returned.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return e.Reason
}
