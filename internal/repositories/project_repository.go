package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
)

type ProjectRepository struct {
	DB *sql.DB
}

// TxState is what a mutation may need to know beyond the project row itself.
type TxState struct {
	EscrowTxID string
}

// Mutation applies a lifecycle step to the locked project.
type Mutation func(p *models.Project, st TxState) (lifecycle.Outcome, error)

// TxHook runs inside the project transaction after the mutation is persisted.
type TxHook func(ctx context.Context, tx *sql.Tx, p models.Project) error

const projectColumns = `id, job_id, client_id, freelancer_id, title, budget, agreed_amount, status, client_agreed, freelancer_agreed,
        payment_status, payment_method, escrow_amount, current_stage, version, created_at, updated_at, completed_at`

func scanProject(row interface{ Scan(...interface{}) error }) (models.Project, error) {
	var (
		p      models.Project
		agreed sql.NullFloat64
	)
	err := row.Scan(
		&p.ID, &p.JobID, &p.ClientID, &p.FreelancerID, &p.Title, &p.Budget, &agreed, &p.Status,
		&p.ClientAgreed, &p.FreelancerAgreed, &p.PaymentStatus, &p.PaymentMethod, &p.EscrowAmount,
		&p.CurrentStage, &p.Version, &p.CreatedAt, &p.UpdatedAt, &p.CompletedAt,
	)
	if agreed.Valid {
		v := agreed.Float64
		p.AgreedAmount = &v
	}
	return p, err
}

func loadStages(ctx context.Context, q querier, projectID int) ([]models.Stage, error) {
	rows, err := q.QueryContext(ctx, `
        SELECT stage_index, name, description, status, deliverable_url, completed_at
        FROM project_stages WHERE project_id = ? ORDER BY stage_index`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		var s models.Stage
		if err := rows.Scan(&s.Index, &s.Name, &s.Description, &s.Status, &s.DeliverableURL, &s.CompletedAt); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func insertProject(ctx context.Context, tx *sql.Tx, p models.Project) (models.Project, error) {
	p.Version = 1
	res, err := tx.ExecContext(ctx, `
        INSERT INTO projects (job_id, client_id, freelancer_id, title, budget, agreed_amount, status,
            client_agreed, freelancer_agreed, payment_status, current_stage, version, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.JobID, p.ClientID, p.FreelancerID, p.Title, p.Budget, p.AgreedAmount, p.Status,
		p.ClientAgreed, p.FreelancerAgreed, p.PaymentStatus, p.CurrentStage, p.Version, p.CreatedAt,
	)
	if err != nil {
		return models.Project{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, err
	}
	p.ID = int(id)

	for _, s := range p.Stages {
		if _, err := tx.ExecContext(ctx, `
            INSERT INTO project_stages (project_id, stage_index, name, description, status)
            VALUES (?, ?, ?, ?, ?)`,
			p.ID, s.Index, s.Name, s.Description, s.Status); err != nil {
			return models.Project{}, err
		}
	}
	return p, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id int) (models.Project, error) {
	p, err := scanProject(r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, models.ErrProjectNotFound
	}
	if err != nil {
		return models.Project{}, err
	}
	p.Stages, err = loadStages(ctx, r.DB, id)
	return p, err
}

// ListByUser returns projects where the user is client or freelancer, newest first.
func (r *ProjectRepository) ListByUser(ctx context.Context, userID int) ([]models.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT `+projectColumns+` FROM projects
        WHERE client_id = ? OR freelancer_id = ?
        ORDER BY created_at DESC, id DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Stages, err = loadStages(ctx, r.DB, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Update locks the project, applies mutate and persists the project together
// with everything the returned Outcome lists. Status changes go through
// fsm.Apply and the row version guards against concurrent writers.
func (r *ProjectRepository) Update(ctx context.Context, id int, mutate Mutation, hooks ...TxHook) (models.Project, lifecycle.Outcome, error) {
	var (
		p   models.Project
		out lifecycle.Outcome
	)
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		p, err = scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ? FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrProjectNotFound
		}
		if err != nil {
			return err
		}
		if p.Stages, err = loadStages(ctx, tx, id); err != nil {
			return err
		}

		var st TxState
		err = tx.QueryRowContext(ctx, `SELECT id FROM transactions WHERE once_key = ?`, onceKey(models.TransactionTypeEscrow, id)).Scan(&st.EscrowTxID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		fromStatus, version := p.Status, p.Version
		out, err = mutate(&p, st)
		if err != nil {
			return err
		}

		if err := fsm.Apply(ctx, tx, id, fromStatus, p.Status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return models.ErrVersionConflict
			}
			return err
		}
		res, err := tx.ExecContext(ctx, `
            UPDATE projects
            SET client_agreed = ?, freelancer_agreed = ?, payment_status = ?, payment_method = ?,
                escrow_amount = ?, current_stage = ?, updated_at = ?, completed_at = ?, version = version + 1
            WHERE id = ? AND version = ?`,
			p.ClientAgreed, p.FreelancerAgreed, p.PaymentStatus, p.PaymentMethod,
			p.EscrowAmount, p.CurrentStage, p.UpdatedAt, p.CompletedAt, id, version,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return models.ErrVersionConflict
		}
		p.Version = version + 1

		for _, s := range p.Stages {
			if _, err := tx.ExecContext(ctx, `
                UPDATE project_stages SET status = ?, deliverable_url = ?, completed_at = ?
                WHERE project_id = ? AND stage_index = ?`,
				s.Status, s.DeliverableURL, s.CompletedAt, id, s.Index); err != nil {
				return err
			}
		}

		if err := persistOutcome(ctx, tx, &p, st.EscrowTxID, &out); err != nil {
			return err
		}
		for _, hook := range hooks {
			if err := hook(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, lifecycle.Outcome{}, err
	}
	return p, out, nil
}

func onceKey(txType string, projectID int) string {
	return fmt.Sprintf("%s:%d", txType, projectID)
}

// persistOutcome writes transactions, messages, balance credits and the job
// status an Outcome asks for, filling generated ids back into out.
func persistOutcome(ctx context.Context, tx *sql.Tx, p *models.Project, escrowTxID string, out *lifecycle.Outcome) error {
	for i := range out.Transactions {
		t := &out.Transactions[i]
		if t.ProjectID != nil && *t.ProjectID == 0 {
			t.ProjectID = &p.ID
		}
		if t.Type == models.TransactionTypeRelease && t.RelatedID == nil && escrowTxID != "" {
			related := escrowTxID
			t.RelatedID = &related
		}
		if err := insertTransaction(ctx, tx, t); err != nil {
			if isDuplicateKeyOn(err, "uq_transactions_payment") {
				return models.ErrPaymentReused
			}
			if isDuplicateKey(err) {
				return models.ErrVersionConflict
			}
			return err
		}
		if t.Type == models.TransactionTypeEscrow {
			escrowTxID = t.ID
		}
	}

	for i := range out.Messages {
		if out.Messages[i].ProjectID == 0 {
			out.Messages[i].ProjectID = p.ID
		}
		m, err := insertMessage(ctx, tx, out.Messages[i])
		if err != nil {
			return err
		}
		out.Messages[i] = m
	}
	for i := range out.Notices {
		if out.Notices[i].ProjectID == 0 {
			out.Notices[i].ProjectID = p.ID
		}
	}

	if c := out.Credit; c != nil {
		if _, err := tx.ExecContext(ctx, `
            UPDATE users
            SET total_earnings = total_earnings + ?, available_balance = available_balance + ?, updated_at = ?
            WHERE id = ?`, c.Amount, c.Amount, time.Now(), c.UserID); err != nil {
			return err
		}
	}
	if out.JobStatus != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`, out.JobStatus, time.Now(), p.JobID); err != nil {
			return err
		}
	}
	return nil
}
