package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/lifecycle"
)

type JobRepository struct {
	DB *sql.DB
}

const jobColumns = `id, client_id, category, title, description, budget, budget_min, budget_max, status, proposal_count, assigned_freelancer_id, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (models.Job, error) {
	var (
		j        models.Job
		assigned sql.NullInt64
	)
	err := row.Scan(
		&j.ID, &j.ClientID, &j.Category, &j.Title, &j.Description, &j.Budget,
		&j.BudgetMin, &j.BudgetMax, &j.Status, &j.ProposalCount, &assigned,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if assigned.Valid {
		id := int(assigned.Int64)
		j.AssignedFreelancerID = &id
	}
	return j, err
}

func (r *JobRepository) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	job.CreatedAt = time.Now()
	if job.Status == "" {
		job.Status = models.JobStatusOpen
	}
	result, err := r.DB.ExecContext(ctx, `
        INSERT INTO jobs (client_id, category, title, description, budget, budget_min, budget_max, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ClientID, job.Category, job.Title, job.Description, job.Budget,
		job.BudgetMin, job.BudgetMax, job.Status, job.CreatedAt,
	)
	if err != nil {
		if isForeignKey(err) {
			return models.Job{}, models.ErrUserNotFound
		}
		return models.Job{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return models.Job{}, err
	}
	job.ID = int(id)
	return job, nil
}

func (r *JobRepository) GetJobByID(ctx context.Context, id int) (models.Job, error) {
	job, err := scanJob(r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Job{}, models.ErrJobNotFound
	}
	return job, err
}

// ListOpenJobs returns open postings newest first; an empty category lists all.
func (r *JobRepository) ListOpenJobs(ctx context.Context, category string, limit, offset int) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ?`
	args := []interface{}{models.JobStatusOpen}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

func (r *JobRepository) ListJobsByClient(ctx context.Context, clientID int) ([]models.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE client_id = ? ORDER BY created_at DESC, id DESC`, clientID)
}

func (r *JobRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Job, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// CloseJob withdraws an open posting. Only the owning client may close it.
func (r *JobRepository) CloseJob(ctx context.Context, id, clientID int) error {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE jobs SET status = ?, updated_at = ?
        WHERE id = ? AND client_id = ? AND status = ?`,
		models.JobStatusClosed, time.Now(), id, clientID, models.JobStatusOpen,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		job, err := r.GetJobByID(ctx, id)
		if err != nil {
			return err
		}
		if job.ClientID != clientID {
			return models.ErrForbidden
		}
		return lifecycle.ErrJobNotOpen
	}
	return nil
}
