package models

import "time"

const (
	MessageKindText   = "text"
	MessageKindSystem = "system"
)

// Message is one entry of a project's chat feed. System messages have SenderID 0.
type Message struct {
	ID        int64     `json:"id"`
	ProjectID int       `json:"project_id"`
	SenderID  int       `json:"sender_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
