package repositories

import (
	"context"
	"database/sql"
	"time"

	"trusthire/internal/models"
)

type WithdrawalRepository struct {
	DB *sql.DB
}

// Create debits the user's available balance and records the payout request.
// The debit is conditional so a balance can never go negative.
func (r *WithdrawalRepository) Create(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	w.Status = models.WithdrawalStatusPending
	w.CreatedAt = time.Now()

	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE users SET available_balance = available_balance - ?, updated_at = ?
            WHERE id = ? AND available_balance >= ?`,
			w.Amount, w.CreatedAt, w.UserID, w.Amount)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrInsufficientBalance
		}

		t := models.Transaction{
			UserID:    w.UserID,
			Type:      models.TransactionTypeWithdrawal,
			Amount:    w.Amount,
			Method:    models.PaymentMethodInternal,
			Reference: w.Destination,
			CreatedAt: w.CreatedAt,
		}
		if err := insertTransaction(ctx, tx, &t); err != nil {
			return err
		}
		w.TransactionID = t.ID

		ins, err := tx.ExecContext(ctx, `
            INSERT INTO withdrawals (user_id, amount, destination, status, transaction_id, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`,
			w.UserID, w.Amount, w.Destination, w.Status, w.TransactionID, w.CreatedAt)
		if err != nil {
			return err
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return err
		}
		w.ID = int(id)
		return nil
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID int) ([]models.Withdrawal, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, user_id, amount, destination, status, transaction_id, created_at
        FROM withdrawals WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Withdrawal{}
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Destination, &w.Status, &w.TransactionID, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
