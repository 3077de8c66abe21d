package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"trusthire/internal/metrics"
	"trusthire/internal/models"
)

type WithdrawalStore interface {
	Create(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error)
	ListByUser(ctx context.Context, userID int) ([]models.Withdrawal, error)
}

type WithdrawalService struct {
	WithdrawalRepo WithdrawalStore
}

func (s *WithdrawalService) Request(ctx context.Context, userID int, role string, req models.WithdrawalRequest) (w models.Withdrawal, err error) {
	defer func() {
		metrics.Withdrawals.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if role != models.RoleFreelancer && role != models.RoleWorker {
		return models.Withdrawal{}, models.ErrForbidden
	}
	amount := math.Round(req.Amount*100) / 100
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Withdrawal{}, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}
	dest := strings.TrimSpace(req.Destination)
	if dest == "" {
		return models.Withdrawal{}, fmt.Errorf("%w: destination is required", models.ErrInvalidInput)
	}
	return s.WithdrawalRepo.Create(ctx, models.Withdrawal{
		UserID:      userID,
		Amount:      amount,
		Destination: dest,
	})
}

func (s *WithdrawalService) List(ctx context.Context, userID int) ([]models.Withdrawal, error) {
	return s.WithdrawalRepo.ListByUser(ctx, userID)
}
