package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trusthire/internal/idempotency"
	"trusthire/internal/metrics"
	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
	"trusthire/internal/project/pay"
	"trusthire/internal/project/pricing"
	"trusthire/internal/repositories"
	"trusthire/internal/storage"
)

type ProjectStore interface {
	GetByID(ctx context.Context, id int) (models.Project, error)
	ListByUser(ctx context.Context, userID int) ([]models.Project, error)
	Update(ctx context.Context, id int, mutate repositories.Mutation, hooks ...repositories.TxHook) (models.Project, lifecycle.Outcome, error)
}

type PaymentOrderStore interface {
	Create(ctx context.Context, o models.PaymentOrder) (models.PaymentOrder, error)
	MarkPaid(gatewayOrderID, paymentID string) repositories.TxHook
}

type TransactionStore interface {
	ListByProject(ctx context.Context, projectID int) ([]models.Transaction, error)
	ListByUser(ctx context.Context, userID int) ([]models.Transaction, error)
	PaymentUsed(ctx context.Context, method, reference string) (bool, error)
}

type FeedbackStore interface {
	Create(ctx context.Context, fb models.Feedback) (models.Feedback, error)
	ListByFreelancer(ctx context.Context, freelancerID int) ([]models.Feedback, error)
}

// OrderCreator opens hosted-checkout orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req pay.CreateOrderRequest) (pay.Order, error)
	KeyID() string
}

// Locker guards one-shot operations across service instances.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

type ProjectService struct {
	ProjectRepo     ProjectStore
	OrderRepo       PaymentOrderStore
	TransactionRepo TransactionStore
	FeedbackRepo    FeedbackStore
	Capturers       map[string]pay.Capturer
	Gateway         OrderCreator
	Locker          Locker
	Uploader        storage.Uploader
	Dispatcher      *Dispatcher

	AmountStrategy string
	Currency       string
	VideoAppID     string
	Now            func() time.Time
}

var ErrGatewayUnavailable = errors.New("payment gateway not configured")

func (s *ProjectService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the project to one of its participants.
func (s *ProjectService) Get(ctx context.Context, id, userID int) (models.Project, error) {
	p, err := s.ProjectRepo.GetByID(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if !p.IsParticipant(userID) {
		return models.Project{}, lifecycle.ErrNotParticipant
	}
	return p, nil
}

func (s *ProjectService) ListMine(ctx context.Context, userID int) ([]models.Project, error) {
	return s.ProjectRepo.ListByUser(ctx, userID)
}

func (s *ProjectService) update(ctx context.Context, id int, mutate repositories.Mutation, hooks ...repositories.TxHook) (models.Project, error) {
	p, out, err := s.ProjectRepo.Update(ctx, id, mutate, hooks...)
	if err != nil {
		return models.Project{}, err
	}
	s.Dispatcher.Project(p, out)
	if out.Credit != nil {
		metrics.EscrowReleases.Inc()
	}
	return p, nil
}

func (s *ProjectService) Agree(ctx context.Context, id, userID int) (models.Project, error) {
	return s.update(ctx, id, func(p *models.Project, _ repositories.TxState) (lifecycle.Outcome, error) {
		return lifecycle.Agree(p, userID, s.now())
	})
}

// EscrowAmount is what the client must fund for p under the configured strategy.
func (s *ProjectService) EscrowAmount(p models.Project) (float64, error) {
	amount, err := pricing.EscrowAmount(s.AmountStrategy, p.Budget, p.AgreedAmount)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if amount <= 0 {
		return 0, lifecycle.ErrInvalidAmount
	}
	return amount, nil
}

// CapturePayment verifies the funding proof with the adapter for method and
// moves the project into escrow. Concurrent captures for one project are
// rejected by the idempotency lock and, failing that, by the row version.
func (s *ProjectService) CapturePayment(ctx context.Context, id, userID int, method string, req pay.CaptureRequest) (p models.Project, err error) {
	defer func() {
		metrics.PaymentCaptures.WithLabelValues(method, metrics.Result(err)).Inc()
	}()

	capturer, ok := s.Capturers[method]
	if !ok {
		return models.Project{}, pay.ErrMethodDisabled
	}
	current, err := s.ProjectRepo.GetByID(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if userID != current.ClientID {
		return models.Project{}, lifecycle.ErrNotClient
	}
	if current.PaymentStatus != fsm.PaymentPending {
		return models.Project{}, lifecycle.ErrAlreadyCaptured
	}
	amount, err := s.EscrowAmount(current)
	if err != nil {
		return models.Project{}, err
	}

	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, idempotency.CaptureKey(id))
		if err != nil {
			return models.Project{}, err
		}
		defer release()
	}

	req.ProjectID = id
	req.Amount = amount
	proof, err := capturer.Capture(ctx, req)
	if err != nil {
		return models.Project{}, err
	}
	// The unique payment_key in the capture transaction is the final word.
	if s.TransactionRepo != nil {
		used, err := s.TransactionRepo.PaymentUsed(ctx, proof.Method, proof.Reference)
		if err != nil {
			return models.Project{}, err
		}
		if used {
			return models.Project{}, models.ErrPaymentReused
		}
	}

	var hooks []repositories.TxHook
	if method == models.PaymentMethodGateway && s.OrderRepo != nil {
		hooks = append(hooks, s.OrderRepo.MarkPaid(req.OrderID, req.PaymentID))
	}
	return s.update(ctx, id, func(p *models.Project, _ repositories.TxState) (lifecycle.Outcome, error) {
		return lifecycle.CapturePayment(p, userID, lifecycle.Proof{Method: proof.Method, Reference: proof.Reference}, amount, s.now())
	}, hooks...)
}

// GatewayOrder is what the browser checkout needs to open the payment sheet.
type GatewayOrder struct {
	KeyID       string `json:"key_id"`
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	ProjectID   int    `json:"project_id"`
}

func (s *ProjectService) CreateGatewayOrder(ctx context.Context, id, userID int) (GatewayOrder, error) {
	if s.Gateway == nil || s.OrderRepo == nil {
		return GatewayOrder{}, ErrGatewayUnavailable
	}
	p, err := s.ProjectRepo.GetByID(ctx, id)
	if err != nil {
		return GatewayOrder{}, err
	}
	if userID != p.ClientID {
		return GatewayOrder{}, lifecycle.ErrNotClient
	}
	if p.Status != fsm.StatusPendingPayment {
		return GatewayOrder{}, lifecycle.ErrInvalidOperation
	}
	amount, err := s.EscrowAmount(p)
	if err != nil {
		return GatewayOrder{}, err
	}
	order, err := s.Gateway.CreateOrder(ctx, pay.CreateOrderRequest{ProjectID: id, Amount: amount, Currency: s.Currency})
	if err != nil {
		return GatewayOrder{}, err
	}
	if _, err := s.OrderRepo.Create(ctx, models.PaymentOrder{
		ProjectID:      id,
		GatewayOrderID: order.ID,
		AmountMinor:    order.AmountMinor,
		Currency:       order.Currency,
	}); err != nil {
		return GatewayOrder{}, err
	}
	return GatewayOrder{
		KeyID:       s.Gateway.KeyID(),
		OrderID:     order.ID,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		ProjectID:   id,
	}, nil
}

func (s *ProjectService) CompleteStage(ctx context.Context, id, index, userID int) (models.Project, error) {
	return s.update(ctx, id, func(p *models.Project, st repositories.TxState) (lifecycle.Outcome, error) {
		return lifecycle.CompleteStage(p, index, userID, st.EscrowTxID, s.now())
	})
}

const maxDeliverableSize = 25 << 20

// UploadDeliverable stores a file for the current stage and records its URL.
func (s *ProjectService) UploadDeliverable(ctx context.Context, id, index, userID int, fileName, contentType string, data []byte) (models.Project, error) {
	if s.Uploader == nil {
		return models.Project{}, fmt.Errorf("%w: file storage not configured", models.ErrInvalidInput)
	}
	if len(data) == 0 || len(data) > maxDeliverableSize {
		return models.Project{}, fmt.Errorf("%w: file must be between 1 byte and 25MB", models.ErrInvalidInput)
	}
	p, err := s.ProjectRepo.GetByID(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if err := lifecycle.AttachDeliverable(&p, index, userID, "", s.now()); err != nil {
		return models.Project{}, err
	}
	url, err := s.Uploader.Upload(ctx, fmt.Sprintf("projects/%d/stages/%d", id, index), fileName, contentType, data)
	if err != nil {
		return models.Project{}, err
	}
	return s.update(ctx, id, func(p *models.Project, _ repositories.TxState) (lifecycle.Outcome, error) {
		return lifecycle.Outcome{}, lifecycle.AttachDeliverable(p, index, userID, url, s.now())
	})
}

func (s *ProjectService) ListTransactions(ctx context.Context, id, userID int) ([]models.Transaction, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.TransactionRepo.ListByProject(ctx, id)
}

// ListMyTransactions returns every money movement booked against userID.
func (s *ProjectService) ListMyTransactions(ctx context.Context, userID int) ([]models.Transaction, error) {
	return s.TransactionRepo.ListByUser(ctx, userID)
}

func (s *ProjectService) FreelancerFeedback(ctx context.Context, freelancerID int) ([]models.Feedback, error) {
	return s.FeedbackRepo.ListByFreelancer(ctx, freelancerID)
}

// Rate records the client's 1-5 star feedback for a completed project.
func (s *ProjectService) Rate(ctx context.Context, id, clientID, rating int, comment string) (models.Feedback, error) {
	p, err := s.ProjectRepo.GetByID(ctx, id)
	if err != nil {
		return models.Feedback{}, err
	}
	fb, notice, err := lifecycle.Rate(p, clientID, rating, comment, s.now())
	if err != nil {
		return models.Feedback{}, err
	}
	fb, err = s.FeedbackRepo.Create(ctx, fb)
	if err != nil {
		return models.Feedback{}, err
	}
	s.Dispatcher.Notice(notice)
	return fb, nil
}

// CallInfo is what the browser video SDK needs to join the project room.
type CallInfo struct {
	AppID   string `json:"app_id"`
	Channel string `json:"channel"`
}

func (s *ProjectService) CallInfo(ctx context.Context, id, userID int) (CallInfo, error) {
	p, err := s.Get(ctx, id, userID)
	if err != nil {
		return CallInfo{}, err
	}
	if s.VideoAppID == "" {
		return CallInfo{}, fmt.Errorf("%w: video calls not configured", models.ErrInvalidInput)
	}
	return CallInfo{AppID: s.VideoAppID, Channel: fmt.Sprintf("project-%d", p.ID)}, nil
}
