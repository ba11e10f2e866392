package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusCompleted = "completed"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID                 int64      `json:"id"`
	CoachID            int64      `json:"coach_id"`
	BookingReference   string     `json:"booking_reference"`
	AthleteName        string     `json:"athlete_name"`
	AthletePhone       string     `json:"athlete_phone"`
	Sport              string     `json:"sport"`
	Location           string     `json:"location"`
	SessionDate        string     `json:"session_date"` // YYYY-MM-DD
	SessionTime        string     `json:"session_time"` // HH:MM
	DurationHours      float64    `json:"duration_hours"`
	TotalAmount        float64    `json:"total_amount"`
	PaymentMethod      string     `json:"payment_method"`
	Notes              *string    `json:"notes"`
	Status             string     `json:"status"`
	ApprovedAt         *time.Time `json:"approved_at"`
	CancellationReason *string    `json:"cancellation_reason"`
	CancelledBy        *string    `json:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// BookingDetail bundles a booking with its payment ledger for API responses.
type BookingDetail struct {
	Booking
	Payments []Payment `json:"payments"`
}

// TotalPaid sums the paid rows of the ledger.
func (d *BookingDetail) TotalPaid() float64 {
	var paid float64
	for _, p := range d.Payments {
		if p.PaymentStatus == PaymentStatusPaid {
			paid += p.Amount
		}
	}
	return paid
}

// RemainingBalance is the booking total minus everything already paid.
func (d *BookingDetail) RemainingBalance() float64 {
	return d.TotalAmount - d.TotalPaid()
}

// DisplayStatus derives the status shown on the dashboard. "expired" is a
// view on approved-but-unpaid bookings past the payment window; it is never
// persisted as a booking status.
func (b *Booking) DisplayStatus(now time.Time, paymentWindow time.Duration) string {
	if b.Status == BookingStatusApproved && b.ApprovedAt != nil &&
		b.ApprovedAt.Add(paymentWindow).Before(now) {
		return "expired"
	}
	return b.Status
}
