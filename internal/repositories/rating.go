package repositories

import (
	"context"
	"database/sql"

	"trusthire/internal/project/lifecycle"
)

// refreshUserRating recomputes a freelancer's average from every feedback row.
func refreshUserRating(ctx context.Context, tx *sql.Tx, freelancerID int) (float64, int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT rating FROM feedback WHERE freelancer_id = ?`, freelancerID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return 0, 0, err
		}
		ratings = append(ratings, v)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	avg := lifecycle.AverageRating(ratings)
	if _, err := tx.ExecContext(ctx, `UPDATE users SET average_rating = ?, rating_count = ? WHERE id = ?`, avg, len(ratings), freelancerID); err != nil {
		return 0, 0, err
	}
	return avg, len(ratings), nil
}
