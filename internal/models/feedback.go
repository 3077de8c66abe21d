package models

import "time"

type Feedback struct {
	ID           int       `json:"id"`
	ProjectID    int       `json:"project_id"`
	ClientID     int       `json:"client_id"`
	FreelancerID int       `json:"freelancer_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}
