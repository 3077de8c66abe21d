package repositories

import (
	"context"
	"database/sql"
	"time"

	"trusthire/internal/models"
)

type MessageRepository struct {
	DB *sql.DB
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertMessage(ctx context.Context, db execer, m models.Message) (models.Message, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Kind == "" {
		m.Kind = models.MessageKindText
	}
	res, err := db.ExecContext(ctx, `
        INSERT INTO messages (project_id, sender_id, kind, text, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		m.ProjectID, m.SenderID, m.Kind, m.Text, m.CreatedAt,
	)
	if err != nil {
		return models.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Message{}, err
	}
	m.ID = id
	return m, nil
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	return insertMessage(ctx, r.DB, m)
}

// ListByProject returns the feed oldest first. afterID > 0 returns only newer messages.
func (r *MessageRepository) ListByProject(ctx context.Context, projectID int, afterID int64) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, project_id, sender_id, kind, text, created_at
        FROM messages
        WHERE project_id = ? AND id > ?
        ORDER BY created_at, id`, projectID, afterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.SenderID, &m.Kind, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
