package notify

import (
	"context"
	"fmt"
	"log/slog"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingApproved  = "booking_approved"
	EventBookingRejected  = "booking_rejected"
	EventBookingCancelled = "booking_cancelled"
	EventPaymentConfirmed = "payment_confirmed"
)

// Event is the narrow contract the core emits towards delivery
// collaborators. Delivery failure never rolls back the state change that
// produced the event.
type Event struct {
	Type             string  `json:"type"`
	CoachID          int64   `json:"coach_id"`
	CoachEmail       string  `json:"coach_email,omitempty"`
	CoachName        string  `json:"coach_name,omitempty"`
	BookingReference string  `json:"booking_reference"`
	AthleteName      string  `json:"athlete_name"`
	AthletePhone     string  `json:"athlete_phone,omitempty"`
	Sport            string  `json:"sport,omitempty"`
	Location         string  `json:"location,omitempty"`
	SessionDate      string  `json:"session_date,omitempty"`
	SessionTime      string  `json:"session_time,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Multi fans an event out to every configured notifier.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}

// Nop is used when no delivery channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// EmailNotifier renders events to plain-text email for the coach.
type EmailNotifier struct {
	sender Sender
	logger *slog.Logger
}

func NewEmailNotifier(sender Sender, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, logger: logger}
}

func (n *EmailNotifier) Notify(_ context.Context, event Event) {
	if event.CoachEmail == "" {
		return
	}
	subject, body := renderEmail(event)
	if err := n.sender.Send(event.CoachEmail, subject, body); err != nil {
		n.logger.Error("notification email failed",
			"type", event.Type,
			"booking_reference", event.BookingReference,
			"err", err,
		)
	}
}

func renderEmail(event Event) (string, string) {
	switch event.Type {
	case EventBookingCreated:
		return fmt.Sprintf("New booking request %s", event.BookingReference),
			fmt.Sprintf(
				"%s requested a %s session on %s at %s (%s).\nTotal: PHP %.2f.\nReview it on your dashboard.",
				event.AthleteName, event.Sport, event.SessionDate, event.SessionTime,
				event.Location, event.Amount,
			)
	case EventBookingApproved:
		return fmt.Sprintf("Booking %s approved", event.BookingReference),
			fmt.Sprintf(
				"The booking for %s on %s at %s is approved and awaiting payment of PHP %.2f.",
				event.AthleteName, event.SessionDate, event.SessionTime, event.Amount,
			)
	case EventBookingRejected:
		return fmt.Sprintf("Booking %s rejected", event.BookingReference),
			fmt.Sprintf("The booking request from %s was rejected.", event.AthleteName)
	case EventBookingCancelled:
		return fmt.Sprintf("Booking %s cancelled", event.BookingReference),
			fmt.Sprintf("The booking for %s on %s at %s was cancelled.",
				event.AthleteName, event.SessionDate, event.SessionTime)
	case EventPaymentConfirmed:
		return fmt.Sprintf("Payment received for %s", event.BookingReference),
			fmt.Sprintf("PHP %.2f was recorded for %s's booking.", event.Amount, event.AthleteName)
	default:
		return fmt.Sprintf("Booking update %s", event.BookingReference),
			fmt.Sprintf("Booking %s changed: %s.", event.BookingReference, event.Type)
	}
}
