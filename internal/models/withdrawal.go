package models

import "time"

const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusPaid     = "paid"
	WithdrawalStatusRejected = "rejected"
)

type Withdrawal struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Amount        float64   `json:"amount"`
	Destination   string    `json:"destination"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type WithdrawalRequest struct {
	Amount      float64 `json:"amount"`
	Destination string  `json:"destination"`
}
