package services

import (
	"context"
	"fmt"
	"strings"

	"trusthire/internal/models"
	"trusthire/internal/project/lifecycle"
)

type ApplicationStore interface {
	Apply(ctx context.Context, app models.Application) (models.Application, error)
	GetByID(ctx context.Context, id int) (models.Application, error)
	ListByJob(ctx context.Context, jobID int) ([]models.Application, error)
	ListByFreelancer(ctx context.Context, freelancerID int) ([]models.Application, error)
	Reject(ctx context.Context, id, clientID int) (models.Application, error)
	Hire(ctx context.Context, applicationID, clientID int, stages []lifecycle.StageTemplate, agreed *float64) (lifecycle.HireResult, error)
}

type ApplicationService struct {
	AppRepo    ApplicationStore
	JobRepo    JobStore
	Stages     []lifecycle.StageTemplate
	Dispatcher *Dispatcher
}

func (s *ApplicationService) Apply(ctx context.Context, freelancerID int, role string, jobID int, req models.ApplyRequest) (models.Application, error) {
	if role != models.RoleFreelancer && role != models.RoleWorker {
		return models.Application{}, models.ErrForbidden
	}
	if req.ProposedRate != nil && *req.ProposedRate <= 0 {
		return models.Application{}, fmt.Errorf("%w: proposed rate must be positive", models.ErrInvalidInput)
	}
	job, err := s.JobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return models.Application{}, err
	}
	if job.ClientID == freelancerID {
		return models.Application{}, models.ErrForbidden
	}
	return s.AppRepo.Apply(ctx, models.Application{
		JobID:        jobID,
		FreelancerID: freelancerID,
		CoverLetter:  strings.TrimSpace(req.CoverLetter),
		ProposedRate: req.ProposedRate,
	})
}

// ListForJob is visible to the job owner only.
func (s *ApplicationService) ListForJob(ctx context.Context, jobID, userID int) ([]models.Application, error) {
	job, err := s.JobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != userID {
		return nil, lifecycle.ErrNotJobOwner
	}
	return s.AppRepo.ListByJob(ctx, jobID)
}

func (s *ApplicationService) ListMine(ctx context.Context, freelancerID int) ([]models.Application, error) {
	return s.AppRepo.ListByFreelancer(ctx, freelancerID)
}

func (s *ApplicationService) Reject(ctx context.Context, id, clientID int) (models.Application, error) {
	return s.AppRepo.Reject(ctx, id, clientID)
}

// Hire approves the application and opens a project awaiting both signatures.
func (s *ApplicationService) Hire(ctx context.Context, applicationID, clientID int, req models.HireRequest) (models.Project, error) {
	stages := s.Stages
	if len(stages) == 0 {
		stages = lifecycle.DefaultStages
	}
	res, err := s.AppRepo.Hire(ctx, applicationID, clientID, stages, req.AgreedAmount)
	if err != nil {
		return models.Project{}, err
	}
	s.Dispatcher.Project(res.Project, res.Outcome)
	return res.Project, nil
}
