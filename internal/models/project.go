package models

import "time"

const (
	StageStatusPending    = "pending"
	StageStatusInProgress = "in-progress"
	StageStatusCompleted  = "completed"
)

type Stage struct {
	Index          int        `json:"index"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	DeliverableURL string     `json:"deliverable_url,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type Project struct {
	ID               int        `json:"id"`
	JobID            int        `json:"job_id"`
	ClientID         int        `json:"client_id"`
	FreelancerID     int        `json:"freelancer_id"`
	Title            string     `json:"title"`
	Budget           string     `json:"budget"`
	AgreedAmount     *float64   `json:"agreed_amount,omitempty"`
	Status           string     `json:"status"`
	ClientAgreed     bool       `json:"client_agreed"`
	FreelancerAgreed bool       `json:"freelancer_agreed"`
	PaymentStatus    string     `json:"payment_status"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	EscrowAmount     float64    `json:"escrow_amount"`
	CurrentStage     int        `json:"current_stage"`
	Stages           []Stage    `json:"stages"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// IsParticipant reports whether userID is the client or the freelancer of the project.
func (p Project) IsParticipant(userID int) bool {
	return userID != 0 && (userID == p.ClientID || userID == p.FreelancerID)
}

// Counterpart returns the other party of the project, or 0 for outsiders.
func (p Project) Counterpart(userID int) int {
	switch userID {
	case p.ClientID:
		return p.FreelancerID
	case p.FreelancerID:
		return p.ClientID
	}
	return 0
}
