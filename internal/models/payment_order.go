package models

import "time"

const (
	PaymentOrderCreated = "created"
	PaymentOrderPaid    = "paid"
	PaymentOrderExpired = "expired"
	PaymentOrderFailed  = "failed"
)

// PaymentOrder tracks a hosted-checkout order opened for a project's escrow.
type PaymentOrder struct {
	ID             int        `json:"id"`
	ProjectID      int        `json:"project_id"`
	GatewayOrderID string     `json:"gateway_order_id"`
	PaymentID      string     `json:"payment_id,omitempty"`
	AmountMinor    int64      `json:"amount_minor"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}
