package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"trusthire/internal/models"
)

type TransactionRepository struct {
	DB *sql.DB
}

const transactionColumns = `id, project_id, user_id, type, amount, method, reference, related_id, created_at`

// PaymentKey identifies the external payment behind an escrow row. The same
// wallet transfer or gateway payment can fund only one escrow.
func PaymentKey(method, reference string) string {
	if reference == "" {
		return ""
	}
	return method + ":" + strings.ToLower(reference)
}

// insertTransaction assigns an id and stores t. Escrow and release rows carry a
// once_key so a project can never hold two of either; escrow rows also carry
// the payment_key of the funds behind them.
func insertTransaction(ctx context.Context, db execer, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	var once sql.NullString
	if t.ProjectID != nil && (t.Type == models.TransactionTypeEscrow || t.Type == models.TransactionTypeRelease) {
		once = nullString(onceKey(t.Type, *t.ProjectID))
	}
	var paymentKey sql.NullString
	if t.Type == models.TransactionTypeEscrow {
		paymentKey = nullString(PaymentKey(t.Method, t.Reference))
	}
	_, err := db.ExecContext(ctx, `
        INSERT INTO transactions (id, project_id, user_id, type, amount, method, reference, related_id, once_key, payment_key, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.UserID, t.Type, t.Amount, t.Method, t.Reference, t.RelatedID, once, paymentKey, t.CreatedAt,
	)
	return err
}

func scanTransaction(row interface{ Scan(...interface{}) error }) (models.Transaction, error) {
	var (
		t         models.Transaction
		projectID sql.NullInt64
		related   sql.NullString
	)
	err := row.Scan(&t.ID, &projectID, &t.UserID, &t.Type, &t.Amount, &t.Method, &t.Reference, &related, &t.CreatedAt)
	if projectID.Valid {
		id := int(projectID.Int64)
		t.ProjectID = &id
	}
	if related.Valid {
		id := related.String
		t.RelatedID = &id
	}
	return t, err
}

func (r *TransactionRepository) ListByProject(ctx context.Context, projectID int) ([]models.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE project_id = ? ORDER BY created_at, id`, projectID)
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int) ([]models.Transaction, error) {
	return r.list(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
}

// PaymentUsed reports whether the payment already funds an escrow.
func (r *TransactionRepository) PaymentUsed(ctx context.Context, method, reference string) (bool, error) {
	key := PaymentKey(method, reference)
	if key == "" {
		return false, nil
	}
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE payment_key = ?`, key).Scan(&n)
	return n > 0, err
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
