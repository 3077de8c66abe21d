package repositories

import (
	"context"
	"database/sql"

	"trusthire/internal/models"
)

type FeedbackRepository struct {
	DB *sql.DB
}

// Create stores the client's rating and refreshes the freelancer's average in
// the same transaction. A second rating for the project fails with ErrAlreadyReviewed.
func (r *FeedbackRepository) Create(ctx context.Context, fb models.Feedback) (models.Feedback, error) {
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
            INSERT INTO feedback (project_id, client_id, freelancer_id, rating, comment, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`,
			fb.ProjectID, fb.ClientID, fb.FreelancerID, fb.Rating, fb.Comment, fb.CreatedAt)
		if err != nil {
			if isDuplicateKey(err) {
				return models.ErrAlreadyReviewed
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		fb.ID = int(id)
		_, _, err = refreshUserRating(ctx, tx, fb.FreelancerID)
		return err
	})
	if err != nil {
		return models.Feedback{}, err
	}
	return fb, nil
}

func (r *FeedbackRepository) ListByFreelancer(ctx context.Context, freelancerID int) ([]models.Feedback, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, project_id, client_id, freelancer_id, rating, comment, created_at
        FROM feedback WHERE freelancer_id = ? ORDER BY created_at DESC, id DESC`, freelancerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.ClientID, &f.FreelancerID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
