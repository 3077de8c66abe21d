package services

import (
	"context"
	"fmt"
	"sync"

	"trusthire/internal/events"
	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
	"trusthire/internal/repositories"
)

type fakeProjects struct {
	mu       sync.Mutex
	projects map[int]models.Project
	txs      []models.Transaction
	credits  map[int]float64
	jobState map[int]string
	nextMsg  int64
}

func newFakeProjects(ps ...models.Project) *fakeProjects {
	f := &fakeProjects{projects: map[int]models.Project{}, credits: map[int]float64{}, jobState: map[int]string{}}
	for _, p := range ps {
		f.projects[p.ID] = p
	}
	return f
}

func cloneProject(p models.Project) models.Project {
	p.Stages = append([]models.Stage(nil), p.Stages...)
	return p
}

func (f *fakeProjects) GetByID(_ context.Context, id int) (models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return models.Project{}, models.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (f *fakeProjects) ListByUser(_ context.Context, userID int) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.projects {
		if p.IsParticipant(userID) {
			out = append(out, cloneProject(p))
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(ctx context.Context, id int, mutate repositories.Mutation, hooks ...repositories.TxHook) (models.Project, lifecycle.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.projects[id]
	if !ok {
		return models.Project{}, lifecycle.Outcome{}, models.ErrProjectNotFound
	}
	p := cloneProject(stored)

	var st repositories.TxState
	for _, t := range f.txs {
		if t.Type == models.TransactionTypeEscrow && t.ProjectID != nil && *t.ProjectID == id {
			st.EscrowTxID = t.ID
		}
	}
	out, err := mutate(&p, st)
	if err != nil {
		return models.Project{}, lifecycle.Outcome{}, err
	}
	if !fsm.CanTransition(stored.Status, p.Status) {
		return models.Project{}, lifecycle.Outcome{}, fsm.ErrInvalidTransition
	}
	for _, t := range out.Transactions {
		if t.Type != models.TransactionTypeEscrow {
			continue
		}
		if used, _ := f.paymentUsed(t.Method, t.Reference); used {
			return models.Project{}, lifecycle.Outcome{}, models.ErrPaymentReused
		}
	}
	for i := range out.Transactions {
		out.Transactions[i].ID = fmt.Sprintf("tx-%d", len(f.txs)+1)
		f.txs = append(f.txs, out.Transactions[i])
	}
	for i := range out.Messages {
		f.nextMsg++
		out.Messages[i].ID = f.nextMsg
	}
	if out.Credit != nil {
		f.credits[out.Credit.UserID] += out.Credit.Amount
	}
	if out.JobStatus != "" {
		f.jobState[p.JobID] = out.JobStatus
	}
	p.Version++
	f.projects[id] = p
	return cloneProject(p), out, nil
}

func (f *fakeProjects) paymentUsed(method, reference string) (bool, error) {
	key := repositories.PaymentKey(method, reference)
	if key == "" {
		return false, nil
	}
	for _, t := range f.txs {
		if t.Type == models.TransactionTypeEscrow && repositories.PaymentKey(t.Method, t.Reference) == key {
			return true, nil
		}
	}
	return false, nil
}

// fakeLedger exposes the transactions booked through fakeProjects.
type fakeLedger struct {
	projects *fakeProjects
}

func (l fakeLedger) PaymentUsed(_ context.Context, method, reference string) (bool, error) {
	l.projects.mu.Lock()
	defer l.projects.mu.Unlock()
	return l.projects.paymentUsed(method, reference)
}

func (l fakeLedger) ListByProject(_ context.Context, projectID int) ([]models.Transaction, error) {
	l.projects.mu.Lock()
	defer l.projects.mu.Unlock()
	var out []models.Transaction
	for _, t := range l.projects.txs {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (l fakeLedger) ListByUser(_ context.Context, userID int) ([]models.Transaction, error) {
	l.projects.mu.Lock()
	defer l.projects.mu.Unlock()
	var out []models.Transaction
	for _, t := range l.projects.txs {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeFeedback struct {
	byProject map[int]models.Feedback
}

func (f *fakeFeedback) Create(_ context.Context, fb models.Feedback) (models.Feedback, error) {
	if f.byProject == nil {
		f.byProject = map[int]models.Feedback{}
	}
	if _, ok := f.byProject[fb.ProjectID]; ok {
		return models.Feedback{}, models.ErrAlreadyReviewed
	}
	fb.ID = len(f.byProject) + 1
	f.byProject[fb.ProjectID] = fb
	return fb, nil
}

func (f *fakeFeedback) ListByFreelancer(_ context.Context, freelancerID int) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range f.byProject {
		if fb.FreelancerID == freelancerID {
			out = append(out, fb)
		}
	}
	return out, nil
}

type feedPush struct {
	users []int
	event string
}

type recordingFeed struct {
	mu     sync.Mutex
	pushes []feedPush
}

func (r *recordingFeed) Push(userIDs []int, event string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, feedPush{users: userIDs, event: event})
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEvents) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
