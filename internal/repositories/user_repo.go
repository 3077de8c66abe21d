package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"trusthire/internal/models"
)

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, name, email, password, role, total_earnings, available_balance, average_rating, rating_count, fcm_token, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.Role,
		&u.TotalEarnings, &u.AvailableBalance, &u.AverageRating, &u.RatingCount,
		&u.FCMToken, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
        INSERT INTO users (name, email, password, role, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	result, err := r.DB.ExecContext(ctx, query, user.Name, user.Email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return models.User{}, models.ErrDuplicateEmail
		}
		return models.User{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	user.ID = int(id)
	return user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, models.ErrUserNotFound
	}
	return user, err
}

func (r *UserRepository) SetSession(ctx context.Context, userID int, session models.Session) error {
	query := `
		UPDATE users
		SET refresh_token = ?, expires_at = ?
		WHERE id = ?
	`
	result, err := r.DB.ExecContext(ctx, query, session.RefreshToken, session.ExpiresAt, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (models.Session, error) {
	query := `
		SELECT id, role, refresh_token, expires_at
		FROM users
		WHERE refresh_token = ?
	`
	var (
		s       models.Session
		refresh sql.NullString
		expires sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, token).Scan(&s.UserID, &s.Role, &refresh, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, models.ErrNoRecord
	}
	if err != nil {
		return models.Session{}, err
	}
	s.RefreshToken = refresh.String
	s.ExpiresAt = expires.Time
	return s, nil
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, userID int, token string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE users SET fcm_token = ?, updated_at = ? WHERE id = ?`, token, time.Now(), userID)
	return err
}

// FCMToken returns the device token, empty when the user has none.
func (r *UserRepository) FCMToken(ctx context.Context, userID int) (string, error) {
	var token string
	err := r.DB.QueryRowContext(ctx, `SELECT fcm_token FROM users WHERE id = ?`, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return token, err
}
