package services

import (
	"context"
	"fmt"
	"strings"

	"trusthire/internal/models"
	"trusthire/internal/project/pricing"
)

type JobStore interface {
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)
	GetJobByID(ctx context.Context, id int) (models.Job, error)
	ListOpenJobs(ctx context.Context, category string, limit, offset int) ([]models.Job, error)
	ListJobsByClient(ctx context.Context, clientID int) ([]models.Job, error)
	CloseJob(ctx context.Context, id, clientID int) error
}

type JobService struct {
	JobRepo JobStore
}

func (s *JobService) CreateJob(ctx context.Context, clientID int, role string, req models.CreateJobRequest) (models.Job, error) {
	if role != models.RoleClient && role != models.RoleAdmin {
		return models.Job{}, models.ErrForbidden
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Budget = strings.TrimSpace(req.Budget)
	if req.Title == "" {
		return models.Job{}, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	switch req.Category {
	case "":
		req.Category = models.JobCategoryFreelancer
	case models.JobCategoryFreelancer, models.JobCategoryWorker:
	default:
		return models.Job{}, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, req.Category)
	}
	lo, hi, err := pricing.ParseBudget(req.Budget)
	if err != nil {
		return models.Job{}, fmt.Errorf("%w: budget must contain an amount", models.ErrInvalidInput)
	}

	return s.JobRepo.CreateJob(ctx, models.Job{
		ClientID:    clientID,
		Category:    req.Category,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		BudgetMin:   lo,
		BudgetMax:   hi,
		Status:      models.JobStatusOpen,
	})
}

func (s *JobService) GetJob(ctx context.Context, id int) (models.Job, error) {
	return s.JobRepo.GetJobByID(ctx, id)
}

func (s *JobService) ListOpenJobs(ctx context.Context, category string, limit, offset int) ([]models.Job, error) {
	return s.JobRepo.ListOpenJobs(ctx, category, limit, offset)
}

func (s *JobService) ListMyJobs(ctx context.Context, clientID int) ([]models.Job, error) {
	return s.JobRepo.ListJobsByClient(ctx, clientID)
}

func (s *JobService) CloseJob(ctx context.Context, id, clientID int) error {
	return s.JobRepo.CloseJob(ctx, id, clientID)
}
