package models

import "time"

const (
	TransactionTypeEscrow     = "escrow"
	TransactionTypeRelease    = "release"
	TransactionTypeWithdrawal = "withdrawal"

	PaymentMethodEscrow   = "escrow"
	PaymentMethodWallet   = "wallet"
	PaymentMethodGateway  = "gateway"
	PaymentMethodInternal = "internal"
)

type Transaction struct {
	ID        string    `json:"id"`
	ProjectID *int      `json:"project_id,omitempty"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	RelatedID *string   `json:"related_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
