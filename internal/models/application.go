package models

import "time"

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusRejected = "rejected"
)

type Application struct {
	ID           int        `json:"id"`
	JobID        int        `json:"job_id"`
	FreelancerID int        `json:"freelancer_id"`
	CoverLetter  string     `json:"cover_letter"`
	ProposedRate *float64   `json:"proposed_rate,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

type ApplyRequest struct {
	CoverLetter  string   `json:"cover_letter"`
	ProposedRate *float64 `json:"proposed_rate,omitempty"`
}

type HireRequest struct {
	// AgreedAmount is the client's final price; used by the "agreed" escrow strategy.
	AgreedAmount *float64 `json:"agreed_amount,omitempty"`
}
