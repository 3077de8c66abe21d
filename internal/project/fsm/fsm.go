package fsm

import (
	"context"
	"database/sql"
	"errors"
)

// Status constants used by the project state machine.
const (
	StatusPendingAgreement = "pending-agreement"
	StatusPendingPayment   = "pending-payment"
	StatusInProgress       = "in-progress"
	StatusCompleted        = "completed"
)

// Payment status constants. Escrow here is a status label, not custody.
const (
	PaymentPending  = "pending"
	PaymentEscrow   = "escrow"
	PaymentReleased = "released"
)

var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[string]map[string]struct{}{
	StatusPendingAgreement: {StatusPendingPayment: {}},
	StatusPendingPayment:   {StatusInProgress: {}},
	StatusInProgress:       {StatusCompleted: {}},
	StatusCompleted:        {},
}

var paymentTransitions = map[string]map[string]struct{}{
	PaymentPending:  {PaymentEscrow: {}},
	PaymentEscrow:   {PaymentReleased: {}},
	PaymentReleased: {},
}

// CanTransition returns whether a project can move from the current status to the target status.
func CanTransition(from, to string) bool {
	return allowed(transitions, from, to)
}

// CanTransitionPayment is CanTransition for the payment status field.
func CanTransitionPayment(from, to string) bool {
	return allowed(paymentTransitions, from, to)
}

func allowed(table map[string]map[string]struct{}, from, to string) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	_, ok = next[to]
	return ok
}

// Apply updates a project status inside tx, failing when the stored status is no longer fromStatus.
func Apply(ctx context.Context, tx *sql.Tx, projectID int, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return ErrInvalidTransition
	}
	if fromStatus == toStatus {
		return nil
	}
	res, err := tx.ExecContext(ctx, `UPDATE projects SET status = ? WHERE id = ? AND status = ?`, toStatus, projectID, fromStatus)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
