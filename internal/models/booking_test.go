package models

import (
	"testing"
	"time"
)

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2026, 10, 2, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	within := now.Add(-window / 2)
	past := now.Add(-2 * window)

	cases := []struct {
		name       string
		status     string
		approvedAt *time.Time
		want       string
	}{
		{"pending stays pending", BookingStatusPending, nil, BookingStatusPending},
		{"approved within window", BookingStatusApproved, &within, BookingStatusApproved},
		{"approved past window", BookingStatusApproved, &past, "expired"},
		{"approved without timestamp", BookingStatusApproved, nil, BookingStatusApproved},
		{"completed past window stays completed", BookingStatusCompleted, &past, BookingStatusCompleted},
		{"cancelled past window stays cancelled", BookingStatusCancelled, &past, BookingStatusCancelled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Booking{Status: tc.status, ApprovedAt: tc.approvedAt}
			if got := b.DisplayStatus(now, window); got != tc.want {
				t.Fatalf("DisplayStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBookingDetailLedgerTotals(t *testing.T) {
	detail := BookingDetail{
		Booking: Booking{TotalAmount: 1500},
		Payments: []Payment{
			{Amount: 500, PaymentStatus: PaymentStatusPaid},
			{Amount: 300, PaymentStatus: PaymentStatusPaid},
			{Amount: 700, PaymentStatus: PaymentStatusPending},
		},
	}

	if paid := detail.TotalPaid(); paid != 800 {
		t.Fatalf("TotalPaid = %v, want 800", paid)
	}
	if remaining := detail.RemainingBalance(); remaining != 700 {
		t.Fatalf("RemainingBalance = %v, want 700", remaining)
	}
}

func TestBookingDetailEmptyLedger(t *testing.T) {
	detail := BookingDetail{Booking: Booking{TotalAmount: 900}}
	if paid := detail.TotalPaid(); paid != 0 {
		t.Fatalf("TotalPaid = %v, want 0", paid)
	}
	if remaining := detail.RemainingBalance(); remaining != 900 {
		t.Fatalf("RemainingBalance = %v, want 900", remaining)
	}
}
