package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trusthire/internal/models"
)

type PaymentOrderRepository struct {
	DB *sql.DB
}

func (r *PaymentOrderRepository) Create(ctx context.Context, o models.PaymentOrder) (models.PaymentOrder, error) {
	o.Status = models.PaymentOrderCreated
	o.CreatedAt = time.Now()
	res, err := r.DB.ExecContext(ctx, `
        INSERT INTO payment_orders (project_id, gateway_order_id, amount_minor, currency, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		o.ProjectID, o.GatewayOrderID, o.AmountMinor, o.Currency, o.Status, o.CreatedAt)
	if err != nil {
		return models.PaymentOrder{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.PaymentOrder{}, err
	}
	o.ID = int(id)
	return o, nil
}

func (r *PaymentOrderRepository) GetByGatewayID(ctx context.Context, gatewayOrderID string) (models.PaymentOrder, error) {
	var o models.PaymentOrder
	err := r.DB.QueryRowContext(ctx, `
        SELECT id, project_id, gateway_order_id, payment_id, amount_minor, currency, status, created_at, updated_at
        FROM payment_orders WHERE gateway_order_id = ?`, gatewayOrderID).Scan(
		&o.ID, &o.ProjectID, &o.GatewayOrderID, &o.PaymentID, &o.AmountMinor, &o.Currency, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentOrder{}, models.ErrPaymentOrderUnknown
	}
	return o, err
}

// MarkPaid returns a hook that flips the order to paid inside the capture
// transaction. The cleaner may already have expired an order whose payment
// went through, so a signed capture also revives expired orders.
func (r *PaymentOrderRepository) MarkPaid(gatewayOrderID, paymentID string) TxHook {
	return func(ctx context.Context, tx *sql.Tx, p models.Project) error {
		res, err := tx.ExecContext(ctx, `
            UPDATE payment_orders SET status = ?, payment_id = ?, updated_at = ?
            WHERE gateway_order_id = ? AND project_id = ? AND status IN (?, ?)`,
			models.PaymentOrderPaid, paymentID, time.Now(), gatewayOrderID, p.ID, models.PaymentOrderCreated, models.PaymentOrderExpired)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrPaymentOrderUnknown
		}
		return nil
	}
}

// ExpireStale marks orders still created before cutoff as expired.
func (r *PaymentOrderRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE payment_orders SET status = ?, updated_at = ?
        WHERE status = ? AND created_at < ?`,
		models.PaymentOrderExpired, time.Now(), models.PaymentOrderCreated, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
