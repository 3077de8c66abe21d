package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trusthire/internal/idempotency"
	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
	"trusthire/internal/project/pay"
	"trusthire/internal/project/pricing"
)

const (
	clientID     = 1
	freelancerID = 2
)

func newProject(t *testing.T) models.Project {
	t.Helper()
	return newProjectWithID(t, 42)
}

func newProjectWithID(t *testing.T, id int) models.Project {
	t.Helper()
	job := models.Job{ID: 7, ClientID: clientID, Title: "Landing page", Budget: "$500 - $1000", Status: models.JobStatusOpen}
	apps := []models.Application{{ID: 10, JobID: 7, FreelancerID: freelancerID, Status: models.ApplicationStatusPending}}
	res, err := lifecycle.Hire(job, apps, 10, clientID, lifecycle.DefaultStages, nil, time.Now())
	if err != nil {
		t.Fatalf("Hire: %v", err)
	}
	res.Project.ID = id
	return res.Project
}

type harness struct {
	svc      *ProjectService
	projects *fakeProjects
	feedback *fakeFeedback
	feed     *recordingFeed
	events   *recordingEvents
}

func newHarness(t *testing.T) harness {
	h := harness{
		projects: newFakeProjects(newProject(t)),
		feedback: &fakeFeedback{},
		feed:     &recordingFeed{},
		events:   &recordingEvents{},
	}
	h.svc = &ProjectService{
		ProjectRepo:     h.projects,
		TransactionRepo: fakeLedger{projects: h.projects},
		FeedbackRepo:    h.feedback,
		Capturers:       map[string]pay.Capturer{models.PaymentMethodEscrow: pay.Simulated{Enabled: true}},
		Dispatcher:      &Dispatcher{Feed: h.feed, Events: h.events},
		AmountStrategy:  pricing.StrategyMidpoint,
		VideoAppID:      "video-app",
	}
	return h
}

func (h harness) agree(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.svc.Agree(ctx, 42, clientID); err != nil {
		t.Fatalf("client Agree: %v", err)
	}
	p, err := h.svc.Agree(ctx, 42, freelancerID)
	if err != nil {
		t.Fatalf("freelancer Agree: %v", err)
	}
	if p.Status != fsm.StatusPendingPayment {
		t.Fatalf("expected pending-payment, got %s", p.Status)
	}
}

func TestProjectEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.agree(t)

	p, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{})
	if err != nil {
		t.Fatalf("CapturePayment: %v", err)
	}
	if p.Status != fsm.StatusInProgress || p.PaymentStatus != fsm.PaymentEscrow || p.EscrowAmount != 750 {
		t.Fatalf("unexpected project after capture: %s/%s %.2f", p.Status, p.PaymentStatus, p.EscrowAmount)
	}

	for i := 0; i < 3; i++ {
		if p, err = h.svc.CompleteStage(ctx, 42, i, freelancerID); err != nil {
			t.Fatalf("CompleteStage(%d): %v", i, err)
		}
	}
	if p.Status != fsm.StatusCompleted || p.PaymentStatus != fsm.PaymentReleased {
		t.Fatalf("expected completed/released, got %s/%s", p.Status, p.PaymentStatus)
	}
	if got := h.projects.credits[freelancerID]; got != 750 {
		t.Fatalf("freelancer credited %.2f, want 750", got)
	}
	if h.projects.jobState[7] != models.JobStatusCompleted {
		t.Fatalf("job not completed: %q", h.projects.jobState[7])
	}
	var escrow, release *models.Transaction
	for i := range h.projects.txs {
		switch h.projects.txs[i].Type {
		case models.TransactionTypeEscrow:
			escrow = &h.projects.txs[i]
		case models.TransactionTypeRelease:
			release = &h.projects.txs[i]
		}
	}
	if escrow == nil || release == nil || release.RelatedID == nil || *release.RelatedID != escrow.ID {
		t.Fatalf("release must reference escrow: %+v", h.projects.txs)
	}

	fb, err := h.svc.Rate(ctx, 42, clientID, 5, "great")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if fb.Rating != 5 || fb.FreelancerID != freelancerID {
		t.Fatalf("unexpected feedback %+v", fb)
	}
	if _, err := h.svc.Rate(ctx, 42, clientID, 4, ""); !errors.Is(err, models.ErrAlreadyReviewed) {
		t.Fatalf("second rating should fail, got %v", err)
	}

	kinds := h.events.kinds()
	want := []string{
		lifecycle.NoticeAgreementSigned, lifecycle.NoticeAgreed, lifecycle.NoticePaymentCaptured,
		lifecycle.NoticeStageCompleted, lifecycle.NoticeStageCompleted, lifecycle.NoticeCompleted,
		lifecycle.NoticePaymentReleased, lifecycle.NoticeRated,
	}
	if len(kinds) != len(want) {
		t.Fatalf("published %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestCapturePaymentRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{}); !errors.Is(err, lifecycle.ErrInvalidOperation) {
		t.Fatalf("capture before agreement should fail, got %v", err)
	}
	h.agree(t)

	if _, err := h.svc.CapturePayment(ctx, 42, freelancerID, models.PaymentMethodEscrow, pay.CaptureRequest{}); !errors.Is(err, lifecycle.ErrNotClient) {
		t.Fatalf("expected ErrNotClient, got %v", err)
	}
	if _, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodWallet, pay.CaptureRequest{}); !errors.Is(err, pay.ErrMethodDisabled) {
		t.Fatalf("unconfigured method should be disabled, got %v", err)
	}
	if _, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{}); err != nil {
		t.Fatalf("CapturePayment: %v", err)
	}
	if _, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{}); !errors.Is(err, lifecycle.ErrAlreadyCaptured) {
		t.Fatalf("second capture should fail, got %v", err)
	}
}

const escrowWallet = "0x00000000000000000000000000000000000e5c40"

// chainNode answers JSON-RPC like a node where every hash is a confirmed
// 750 wei transfer to escrowWallet.
func chainNode(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc: %v", err)
		}
		result := "null"
		switch req.Method {
		case "eth_getTransactionReceipt":
			result = `{"status":"0x1","to":"` + escrowWallet + `","blockNumber":"0x10"}`
		case "eth_getTransactionByHash":
			result = `{"to":"` + escrowWallet + `","value":"0x2ee"}`
		case "eth_blockNumber":
			result = `"0x12"`
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWalletTransferFundsOneProject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.projects.projects[43] = newProjectWithID(t, 43)
	node := chainNode(t)
	h.svc.Capturers[models.PaymentMethodWallet] = pay.WalletCapturer{Verifier: pay.NewWalletVerifier(node.Client(), pay.WalletConfig{
		RPCURL:        node.URL,
		EscrowAddress: escrowWallet,
		WeiPerUnit:    big.NewInt(1),
	})}
	for _, id := range []int{42, 43} {
		for _, user := range []int{clientID, freelancerID} {
			if _, err := h.svc.Agree(ctx, id, user); err != nil {
				t.Fatalf("Agree(%d, %d): %v", id, user, err)
			}
		}
	}

	p, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodWallet, pay.CaptureRequest{TxHash: "0xSAMEHASH"})
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if p.PaymentStatus != fsm.PaymentEscrow || p.EscrowAmount != 750 {
		t.Fatalf("unexpected project after capture: %s %.2f", p.PaymentStatus, p.EscrowAmount)
	}

	for _, hash := range []string{"0xSAMEHASH", "0xsamehash"} {
		if _, err := h.svc.CapturePayment(ctx, 43, clientID, models.PaymentMethodWallet, pay.CaptureRequest{TxHash: hash}); !errors.Is(err, models.ErrPaymentReused) {
			t.Fatalf("replay of %s: expected ErrPaymentReused, got %v", hash, err)
		}
	}
	other, _ := h.projects.GetByID(ctx, 43)
	if other.Status != fsm.StatusPendingPayment || other.PaymentStatus != fsm.PaymentPending {
		t.Fatalf("project 43 must stay unfunded, got %s/%s", other.Status, other.PaymentStatus)
	}

	// Without the pre-check the ledger constraint still refuses the replay.
	h.svc.TransactionRepo = nil
	if _, err := h.svc.CapturePayment(ctx, 43, clientID, models.PaymentMethodWallet, pay.CaptureRequest{TxHash: "0xSAMEHASH"}); !errors.Is(err, models.ErrPaymentReused) {
		t.Fatalf("expected ErrPaymentReused from the store, got %v", err)
	}
}

type busyLocker struct{}

func (busyLocker) Acquire(context.Context, string) (func(), error) {
	return nil, idempotency.ErrInFlight
}

func TestCapturePaymentInFlight(t *testing.T) {
	h := newHarness(t)
	h.agree(t)
	h.svc.Locker = busyLocker{}

	_, err := h.svc.CapturePayment(context.Background(), 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{})
	if !errors.Is(err, idempotency.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	p, _ := h.projects.GetByID(context.Background(), 42)
	if p.PaymentStatus != fsm.PaymentPending {
		t.Fatalf("payment status must stay pending, got %s", p.PaymentStatus)
	}
}

func TestAgreeByStranger(t *testing.T) {
	h := newHarness(t)
	if _, err := h.svc.Agree(context.Background(), 42, 99); !errors.Is(err, lifecycle.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestCallInfo(t *testing.T) {
	h := newHarness(t)
	info, err := h.svc.CallInfo(context.Background(), 42, freelancerID)
	if err != nil {
		t.Fatalf("CallInfo: %v", err)
	}
	if info.AppID != "video-app" || info.Channel != "project-42" {
		t.Fatalf("unexpected call info %+v", info)
	}
	if _, err := h.svc.CallInfo(context.Background(), 42, 99); !errors.Is(err, lifecycle.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

type memUploader struct{ folder string }

func (m *memUploader) Upload(_ context.Context, folder, fileName, _ string, _ []byte) (string, error) {
	m.folder = folder
	return "https://cdn.example.com/" + folder + "/" + fileName, nil
}

func TestUploadDeliverable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	up := &memUploader{}
	h.svc.Uploader = up
	h.agree(t)
	if _, err := h.svc.CapturePayment(ctx, 42, clientID, models.PaymentMethodEscrow, pay.CaptureRequest{}); err != nil {
		t.Fatalf("CapturePayment: %v", err)
	}

	if _, err := h.svc.UploadDeliverable(ctx, 42, 0, clientID, "a.zip", "application/zip", []byte("x")); !errors.Is(err, lifecycle.ErrNotFreelancer) {
		t.Fatalf("expected ErrNotFreelancer, got %v", err)
	}
	p, err := h.svc.UploadDeliverable(ctx, 42, 0, freelancerID, "a.zip", "application/zip", []byte("x"))
	if err != nil {
		t.Fatalf("UploadDeliverable: %v", err)
	}
	if p.Stages[0].DeliverableURL != "https://cdn.example.com/projects/42/stages/0/a.zip" {
		t.Fatalf("unexpected deliverable url %q", p.Stages[0].DeliverableURL)
	}
}
