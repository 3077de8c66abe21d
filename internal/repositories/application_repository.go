package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/lifecycle"
)

type ApplicationRepository struct {
	DB *sql.DB
}

const applicationColumns = `id, job_id, freelancer_id, cover_letter, proposed_rate, status, created_at, updated_at`

func scanApplication(row interface{ Scan(...interface{}) error }) (models.Application, error) {
	var (
		a    models.Application
		rate sql.NullFloat64
	)
	err := row.Scan(&a.ID, &a.JobID, &a.FreelancerID, &a.CoverLetter, &rate, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if rate.Valid {
		v := rate.Float64
		a.ProposedRate = &v
	}
	return a, err
}

// Apply inserts a pending application and bumps the job's proposal count in one transaction.
func (r *ApplicationRepository) Apply(ctx context.Context, app models.Application) (models.Application, error) {
	app.Status = models.ApplicationStatusPending
	app.CreatedAt = time.Now()

	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ? FOR UPDATE`, app.JobID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrJobNotFound
		}
		if err != nil {
			return err
		}
		if status != models.JobStatusOpen {
			return lifecycle.ErrJobNotOpen
		}

		var rate interface{}
		if app.ProposedRate != nil {
			rate = *app.ProposedRate
		}
		res, err := tx.ExecContext(ctx, `
            INSERT INTO applications (job_id, freelancer_id, cover_letter, proposed_rate, status, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`,
			app.JobID, app.FreelancerID, app.CoverLetter, rate, app.Status, app.CreatedAt,
		)
		if err != nil {
			if isDuplicateKey(err) {
				return models.ErrAlreadyApplied
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		app.ID = int(id)

		_, err = tx.ExecContext(ctx, `UPDATE jobs SET proposal_count = proposal_count + 1 WHERE id = ?`, app.JobID)
		return err
	})
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id int) (models.Application, error) {
	app, err := scanApplication(r.DB.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, models.ErrApplicationNotFound
	}
	return app, err
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID int) ([]models.Application, error) {
	return r.list(ctx, r.DB, `SELECT `+applicationColumns+` FROM applications WHERE job_id = ? ORDER BY created_at, id`, jobID)
}

func (r *ApplicationRepository) ListByFreelancer(ctx context.Context, freelancerID int) ([]models.Application, error) {
	return r.list(ctx, r.DB, `SELECT `+applicationColumns+` FROM applications WHERE freelancer_id = ? ORDER BY created_at DESC, id DESC`, freelancerID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *ApplicationRepository) list(ctx context.Context, q querier, query string, args ...interface{}) ([]models.Application, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Reject moves a pending application to rejected. Only the job owner may do it.
func (r *ApplicationRepository) Reject(ctx context.Context, id, clientID int) (models.Application, error) {
	var app models.Application
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var ownerID int
		err := tx.QueryRowContext(ctx, `
            SELECT j.client_id FROM applications a JOIN jobs j ON j.id = a.job_id
            WHERE a.id = ? FOR UPDATE`, id).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrApplicationNotFound
		}
		if err != nil {
			return err
		}
		if ownerID != clientID {
			return lifecycle.ErrNotJobOwner
		}
		now := time.Now()
		res, err := tx.ExecContext(ctx, `
            UPDATE applications SET status = ?, updated_at = ?
            WHERE id = ? AND status = ?`,
			models.ApplicationStatusRejected, now, id, models.ApplicationStatusPending)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return lifecycle.ErrApplicationState
		}
		app, err = scanApplication(tx.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id))
		return err
	})
	return app, err
}

// Hire approves one application and opens the project for it. The job, every
// application for it, the project, its stages and the opening system message
// are written in a single transaction.
func (r *ApplicationRepository) Hire(ctx context.Context, applicationID, clientID int, stages []lifecycle.StageTemplate, agreed *float64) (lifecycle.HireResult, error) {
	var res lifecycle.HireResult
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var jobID int
		err := tx.QueryRowContext(ctx, `SELECT job_id FROM applications WHERE id = ?`, applicationID).Scan(&jobID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrApplicationNotFound
		}
		if err != nil {
			return err
		}

		job, err := scanJob(tx.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ? FOR UPDATE`, jobID))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrJobNotFound
		}
		if err != nil {
			return err
		}
		apps, err := r.list(ctx, tx, `SELECT `+applicationColumns+` FROM applications WHERE job_id = ? FOR UPDATE`, jobID)
		if err != nil {
			return err
		}

		res, err = lifecycle.Hire(job, apps, applicationID, clientID, stages, agreed, time.Now())
		if err != nil {
			return err
		}

		changed := append([]models.Application{res.Approved}, res.Rejected...)
		for _, a := range changed {
			if _, err := tx.ExecContext(ctx, `UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`, a.Status, a.UpdatedAt, a.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `
            UPDATE jobs SET status = ?, assigned_freelancer_id = ?, updated_at = ?
            WHERE id = ? AND status = ?`,
			res.Job.Status, res.Job.AssignedFreelancerID, res.Job.UpdatedAt, job.ID, models.JobStatusOpen); err != nil {
			return err
		}

		res.Project, err = insertProject(ctx, tx, res.Project)
		if err != nil {
			return err
		}
		return persistOutcome(ctx, tx, &res.Project, "", &res.Outcome)
	})
	if err != nil {
		return lifecycle.HireResult{}, err
	}
	return res, nil
}
