package models

import "time"

const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in-progress"
	JobStatusCompleted  = "completed"
	JobStatusClosed     = "closed"

	JobCategoryFreelancer = "freelancer"
	JobCategoryWorker     = "worker"
)

type Job struct {
	ID                   int        `json:"id"`
	ClientID             int        `json:"client_id"`
	Category             string     `json:"category"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Budget               string     `json:"budget"`
	BudgetMin            float64    `json:"budget_min"`
	BudgetMax            float64    `json:"budget_max"`
	Status               string     `json:"status"`
	ProposalCount        int        `json:"proposal_count"`
	AssignedFreelancerID *int       `json:"assigned_freelancer_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`
}

type CreateJobRequest struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Budget      string `json:"budget"`
}
