package models

import "time"

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	PaymentStatusFailed   = "failed"
)

const (
	PaymentMethodGcash = "gcash"
	PaymentMethodMaya  = "maya"
	PaymentMethodCash  = "cash"
)

type Payment struct {
	ID                int64      `json:"id"`
	BookingID         int64      `json:"booking_id"`
	Amount            float64    `json:"amount"`
	PaymentMethod     string     `json:"payment_method"`
	PaymentStatus     string     `json:"payment_status"`
	IsDeposit         bool       `json:"is_deposit"`
	ReferenceNumber   *string    `json:"reference_number"`
	ReceiptURL        *string    `json:"payment_receipt_url"`
	PaymentDate       *time.Time `json:"payment_date"`
	DisputeReason     *string    `json:"dispute_reason"`
	DisputeInitiated  *time.Time `json:"dispute_initiated_at"`
	CreatedAt         time.Time  `json:"created_at"`
}
