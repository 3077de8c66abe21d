package lifecycle

import (
	"fmt"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
)

// StageTemplate seeds one stage of a new project.
type StageTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// DefaultStages is the three-milestone plan every project starts with unless configured otherwise.
var DefaultStages = []StageTemplate{
	{Name: "Planning", Description: "Scope, requirements and schedule agreed"},
	{Name: "Development", Description: "Main body of work delivered for review"},
	{Name: "Delivery", Description: "Final hand-over and acceptance"},
}

// HireResult carries every record the hire flow touches.
type HireResult struct {
	Job      models.Job
	Approved models.Application
	Rejected []models.Application
	Project  models.Project
	Outcome  Outcome
}

// Hire approves one pending application, rejects the other pending ones,
// moves the job to in-progress and opens a project awaiting agreement.
func Hire(job models.Job, applications []models.Application, applicationID, clientID int, stages []StageTemplate, agreed *float64, now time.Time) (HireResult, error) {
	if clientID != job.ClientID {
		return HireResult{}, ErrNotJobOwner
	}
	if job.Status != models.JobStatusOpen {
		return HireResult{}, ErrJobNotOpen
	}
	if len(stages) == 0 {
		return HireResult{}, ErrNoStages
	}
	if agreed != nil && *agreed <= 0 {
		return HireResult{}, ErrInvalidAmount
	}

	var res HireResult
	found := false
	for _, app := range applications {
		if app.JobID != job.ID {
			continue
		}
		if app.ID == applicationID {
			if app.Status != models.ApplicationStatusPending {
				return HireResult{}, ErrApplicationState
			}
			app.Status = models.ApplicationStatusApproved
			app.UpdatedAt = &now
			res.Approved = app
			found = true
			continue
		}
		if app.Status == models.ApplicationStatusPending {
			app.Status = models.ApplicationStatusRejected
			app.UpdatedAt = &now
			res.Rejected = append(res.Rejected, app)
		}
	}
	if !found {
		return HireResult{}, models.ErrApplicationNotFound
	}

	freelancerID := res.Approved.FreelancerID
	job.Status = models.JobStatusInProgress
	job.AssignedFreelancerID = &freelancerID
	job.UpdatedAt = &now
	res.Job = job

	res.Project = models.Project{
		JobID:         job.ID,
		ClientID:      job.ClientID,
		FreelancerID:  freelancerID,
		Title:         job.Title,
		Budget:        job.Budget,
		AgreedAmount:  agreed,
		Status:        fsm.StatusPendingAgreement,
		PaymentStatus: fsm.PaymentPending,
		CurrentStage:  0,
		Stages:        seedStages(stages),
		CreatedAt:     now,
	}

	res.Outcome.system(&res.Project, fmt.Sprintf("Project %q created. Both parties must sign the agreement to continue.", job.Title), now)
	res.Outcome.Notices = append(res.Outcome.Notices, Notice{
		Kind:       NoticeHired,
		Recipients: []int{freelancerID},
		Title:      "You were hired",
		Body:       fmt.Sprintf("Your application for %q was approved.", job.Title),
	})
	return res, nil
}

func seedStages(stages []StageTemplate) []models.Stage {
	out := make([]models.Stage, len(stages))
	for i, st := range stages {
		out[i] = models.Stage{
			Index:       i,
			Name:        st.Name,
			Description: st.Description,
			Status:      models.StageStatusPending,
		}
	}
	return out
}
