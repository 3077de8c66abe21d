package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
)

func q(s string) string { return regexp.QuoteMeta(s) }

func TestWithdrawalInsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE users SET available_balance = available_balance - ?")).
		WithArgs(50.0, sqlmock.AnyArg(), 3, 50.0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &WithdrawalRepository{DB: db}
	_, err = repo.Create(context.Background(), models.Withdrawal{UserID: 3, Amount: 50, Destination: "acct"})
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestWithdrawalCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE users SET available_balance = available_balance - ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO withdrawals")).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	repo := &WithdrawalRepository{DB: db}
	w, err := repo.Create(context.Background(), models.Withdrawal{UserID: 3, Amount: 50, Destination: "acct"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.ID != 9 || w.TransactionID == "" || w.Status != models.WithdrawalStatusPending {
		t.Fatalf("unexpected withdrawal %+v", w)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFeedbackDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO feedback")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	repo := &FeedbackRepository{DB: db}
	_, err = repo.Create(context.Background(), models.Feedback{ProjectID: 1, ClientID: 1, FreelancerID: 2, Rating: 5})
	if !errors.Is(err, models.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestFeedbackRefreshesAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO feedback")).WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(q("SELECT rating FROM feedback WHERE freelancer_id = ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(4))
	mock.ExpectExec(q("UPDATE users SET average_rating = ?, rating_count = ? WHERE id = ?")).
		WithArgs(4.5, 2, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &FeedbackRepository{DB: db}
	fb, err := repo.Create(context.Background(), models.Feedback{ProjectID: 1, ClientID: 1, FreelancerID: 2, Rating: 4, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fb.ID != 4 {
		t.Fatalf("expected id 4, got %d", fb.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

var projectCols = []string{
	"id", "job_id", "client_id", "freelancer_id", "title", "budget", "agreed_amount", "status",
	"client_agreed", "freelancer_agreed", "payment_status", "payment_method", "escrow_amount",
	"current_stage", "version", "created_at", "updated_at", "completed_at",
}

func expectLockedProject(mock sqlmock.Sqlmock, clientAgreed bool) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("FROM projects WHERE id = ? FOR UPDATE")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow(
			42, 7, 1, 2, "Landing page", "$500 - $1000", nil, fsm.StatusPendingAgreement,
			clientAgreed, false, fsm.PaymentPending, "", 0.0,
			0, 3, created, nil, nil,
		))
	stageRows := sqlmock.NewRows([]string{"stage_index", "name", "description", "status", "deliverable_url", "completed_at"})
	for i, st := range lifecycle.DefaultStages {
		stageRows.AddRow(i, st.Name, st.Description, models.StageStatusPending, "", nil)
	}
	mock.ExpectQuery(q("FROM project_stages WHERE project_id = ?")).WithArgs(42).WillReturnRows(stageRows)
	mock.ExpectQuery(q("SELECT id FROM transactions WHERE once_key = ?")).
		WithArgs("escrow:42").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func TestProjectUpdateSecondSignature(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectLockedProject(mock, true)
	mock.ExpectExec(q("UPDATE projects SET status = ? WHERE id = ? AND status = ?")).
		WithArgs(fsm.StatusPendingPayment, 42, fsm.StatusPendingAgreement).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("SET client_agreed = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
	for range lifecycle.DefaultStages {
		mock.ExpectExec(q("UPDATE project_stages")).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(q("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectCommit()

	repo := &ProjectRepository{DB: db}
	p, out, err := repo.Update(context.Background(), 42, func(p *models.Project, _ TxState) (lifecycle.Outcome, error) {
		return lifecycle.Agree(p, p.FreelancerID, time.Now())
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Status != fsm.StatusPendingPayment || p.Version != 4 {
		t.Fatalf("unexpected project state %s v%d", p.Status, p.Version)
	}
	if len(out.Messages) != 1 || out.Messages[0].ID != 100 || out.Messages[0].ProjectID != 42 {
		t.Fatalf("system message not persisted: %+v", out.Messages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectUpdateVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectLockedProject(mock, false)
	mock.ExpectExec(q("SET client_agreed = ?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := &ProjectRepository{DB: db}
	_, _, err = repo.Update(context.Background(), 42, func(p *models.Project, _ TxState) (lifecycle.Outcome, error) {
		return lifecycle.Agree(p, p.ClientID, time.Now())
	})
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestProjectUpdateMutationErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectLockedProject(mock, false)
	mock.ExpectRollback()

	repo := &ProjectRepository{DB: db}
	_, _, err = repo.Update(context.Background(), 42, func(p *models.Project, _ TxState) (lifecycle.Outcome, error) {
		return lifecycle.Agree(p, 99, time.Now())
	})
	if !errors.Is(err, lifecycle.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(q("UPDATE payment_orders SET status = ?")).
		WithArgs(models.PaymentOrderExpired, sqlmock.AnyArg(), models.PaymentOrderCreated, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := &PaymentOrderRepository{DB: db}
	n, err := repo.ExpireStale(context.Background(), time.Now().Add(-time.Hour))
	if err != nil || n != 3 {
		t.Fatalf("ExpireStale = %d, %v", n, err)
	}
}

type projectRow struct {
	status           string
	paymentStatus    string
	clientAgreed     bool
	freelancerAgreed bool
	escrow           float64
	current          int
	stages           []string
	escrowTxID       string
}

func expectProject(mock sqlmock.Sqlmock, r projectRow) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("FROM projects WHERE id = ? FOR UPDATE")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow(
			42, 7, 1, 2, "Landing page", "$500 - $1000", nil, r.status,
			r.clientAgreed, r.freelancerAgreed, r.paymentStatus, "", r.escrow,
			r.current, 5, created, nil, nil,
		))
	stageRows := sqlmock.NewRows([]string{"stage_index", "name", "description", "status", "deliverable_url", "completed_at"})
	for i, st := range lifecycle.DefaultStages {
		stageRows.AddRow(i, st.Name, st.Description, r.stages[i], "", nil)
	}
	mock.ExpectQuery(q("FROM project_stages WHERE project_id = ?")).WithArgs(42).WillReturnRows(stageRows)
	escrowRows := sqlmock.NewRows([]string{"id"})
	if r.escrowTxID != "" {
		escrowRows.AddRow(r.escrowTxID)
	}
	mock.ExpectQuery(q("SELECT id FROM transactions WHERE once_key = ?")).
		WithArgs("escrow:42").
		WillReturnRows(escrowRows)
}

var finalStage = projectRow{
	status:           fsm.StatusInProgress,
	paymentStatus:    fsm.PaymentEscrow,
	clientAgreed:     true,
	freelancerAgreed: true,
	escrow:           750,
	current:          2,
	stages:           []string{models.StageStatusCompleted, models.StageStatusCompleted, models.StageStatusInProgress},
	escrowTxID:       "esc-1",
}

func completeFinalStage(p *models.Project, st TxState) (lifecycle.Outcome, error) {
	return lifecycle.CompleteStage(p, 2, p.FreelancerID, st.EscrowTxID, time.Now())
}

func TestProjectUpdateFinalStageReleasesEscrow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectProject(mock, finalStage)
	mock.ExpectExec(q("UPDATE projects SET status = ? WHERE id = ? AND status = ?")).
		WithArgs(fsm.StatusCompleted, 42, fsm.StatusInProgress).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("SET client_agreed = ?")).
		WithArgs(true, true, fsm.PaymentReleased, "", 750.0, 2, sqlmock.AnyArg(), sqlmock.AnyArg(), 42, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for range lifecycle.DefaultStages {
		mock.ExpectExec(q("UPDATE project_stages")).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(q("INSERT INTO transactions")).
		WithArgs(sqlmock.AnyArg(), 42, 2, models.TransactionTypeRelease, 750.0, models.PaymentMethodInternal, "", "esc-1", "release:42", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(200, 1))
	mock.ExpectExec(q("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(201, 1))
	mock.ExpectExec(q("UPDATE users SET total_earnings = total_earnings + ?, available_balance = available_balance + ?")).
		WithArgs(750.0, 750.0, sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs(models.JobStatusCompleted, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := &ProjectRepository{DB: db}
	p, out, err := repo.Update(context.Background(), 42, completeFinalStage)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Status != fsm.StatusCompleted || p.PaymentStatus != fsm.PaymentReleased || p.Version != 6 {
		t.Fatalf("unexpected project state %s/%s v%d", p.Status, p.PaymentStatus, p.Version)
	}
	if len(out.Transactions) != 1 || out.Transactions[0].RelatedID == nil || *out.Transactions[0].RelatedID != "esc-1" {
		t.Fatalf("release must point at the escrow transaction: %+v", out.Transactions)
	}
	if out.Credit == nil || out.Credit.UserID != 2 || out.Credit.Amount != 750 {
		t.Fatalf("unexpected credit %+v", out.Credit)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectUpdateDuplicateReleaseIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectProject(mock, finalStage)
	mock.ExpectExec(q("UPDATE projects SET status = ? WHERE id = ? AND status = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("SET client_agreed = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
	for range lifecycle.DefaultStages {
		mock.ExpectExec(q("UPDATE project_stages")).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(q("INSERT INTO transactions")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'release:42' for key 'transactions.uq_transactions_once'"})
	mock.ExpectRollback()

	repo := &ProjectRepository{DB: db}
	if _, _, err := repo.Update(context.Background(), 42, completeFinalStage); !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProjectUpdateReusedPaymentIsRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectProject(mock, projectRow{
		status:           fsm.StatusPendingPayment,
		paymentStatus:    fsm.PaymentPending,
		clientAgreed:     true,
		freelancerAgreed: true,
		stages: []string{models.StageStatusPending, models.StageStatusPending, models.StageStatusPending},
	})
	mock.ExpectExec(q("UPDATE projects SET status = ? WHERE id = ? AND status = ?")).
		WithArgs(fsm.StatusInProgress, 42, fsm.StatusPendingPayment).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("SET client_agreed = ?")).WillReturnResult(sqlmock.NewResult(0, 1))
	for range lifecycle.DefaultStages {
		mock.ExpectExec(q("UPDATE project_stages")).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(q("INSERT INTO transactions")).
		WithArgs(sqlmock.AnyArg(), 42, 1, models.TransactionTypeEscrow, 750.0, models.PaymentMethodWallet, "0xsamehash", nil, "escrow:42", "wallet:0xsamehash", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'wallet:0xsamehash' for key 'transactions.uq_transactions_payment'"})
	mock.ExpectRollback()

	repo := &ProjectRepository{DB: db}
	_, _, err = repo.Update(context.Background(), 42, func(p *models.Project, _ TxState) (lifecycle.Outcome, error) {
		proof := lifecycle.Proof{Method: models.PaymentMethodWallet, Reference: "0xsamehash"}
		return lifecycle.CapturePayment(p, p.ClientID, proof, 750, time.Now())
	})
	if !errors.Is(err, models.ErrPaymentReused) {
		t.Fatalf("expected ErrPaymentReused, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPaymentUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(q("SELECT COUNT(*) FROM transactions WHERE payment_key = ?")).
		WithArgs("wallet:0xsamehash").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	repo := &TransactionRepository{DB: db}
	used, err := repo.PaymentUsed(context.Background(), models.PaymentMethodWallet, "0xSAMEHASH")
	if err != nil || !used {
		t.Fatalf("PaymentUsed = %v, %v", used, err)
	}
	if used, err := repo.PaymentUsed(context.Background(), models.PaymentMethodEscrow, ""); err != nil || used {
		t.Fatalf("empty reference must never count as used: %v, %v", used, err)
	}
}

func TestMarkPaidRevivesExpiredOrder(t *testing.T) {
	tests := []struct {
		name string
		rows int64
		want error
	}{
		{"created or expired", 1, nil},
		{"already paid or foreign", 0, models.ErrPaymentOrderUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectExec(q("UPDATE payment_orders SET status = ?, payment_id = ?")).
				WithArgs(models.PaymentOrderPaid, "pay_1", sqlmock.AnyArg(), "order_1", 42, models.PaymentOrderCreated, models.PaymentOrderExpired).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			mock.ExpectRollback()

			tx, err := db.Begin()
			if err != nil {
				t.Fatalf("begin: %v", err)
			}
			repo := &PaymentOrderRepository{DB: db}
			err = repo.MarkPaid("order_1", "pay_1")(context.Background(), tx, models.Project{ID: 42})
			if !errors.Is(err, tt.want) {
				t.Fatalf("MarkPaid = %v, want %v", err, tt.want)
			}
			tx.Rollback()
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestApplicationHire(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	appCols := []string{"id", "job_id", "freelancer_id", "cover_letter", "proposed_rate", "status", "created_at", "updated_at"}
	jobCols := []string{
		"id", "client_id", "category", "title", "description", "budget", "budget_min", "budget_max",
		"status", "proposal_count", "assigned_freelancer_id", "created_at", "updated_at",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT job_id FROM applications WHERE id = ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow(7))
	mock.ExpectQuery(q("FROM jobs WHERE id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(jobCols).AddRow(
			7, 1, models.JobCategoryFreelancer, "Landing page", "Marketing site", "$500 - $1000", 500.0, 1000.0,
			models.JobStatusOpen, 3, nil, created, nil,
		))
	mock.ExpectQuery(q("FROM applications WHERE job_id = ? FOR UPDATE")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(appCols).
			AddRow(10, 7, 2, "hire me", nil, models.ApplicationStatusPending, created, nil).
			AddRow(11, 7, 3, "me too", 800.0, models.ApplicationStatusPending, created, nil).
			AddRow(12, 7, 4, "late", nil, models.ApplicationStatusRejected, created, nil))
	mock.ExpectExec(q("UPDATE applications SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs(models.ApplicationStatusApproved, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE applications SET status = ?, updated_at = ? WHERE id = ?")).
		WithArgs(models.ApplicationStatusRejected, sqlmock.AnyArg(), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE jobs SET status = ?, assigned_freelancer_id = ?")).
		WithArgs(models.JobStatusInProgress, 2, sqlmock.AnyArg(), 7, models.JobStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO projects")).
		WithArgs(7, 1, 2, "Landing page", "$500 - $1000", nil, fsm.StatusPendingAgreement,
			false, false, fsm.PaymentPending, 0, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	for i, st := range lifecycle.DefaultStages {
		mock.ExpectExec(q("INSERT INTO project_stages")).
			WithArgs(42, i, st.Name, st.Description, models.StageStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(q("INSERT INTO messages")).WillReturnResult(sqlmock.NewResult(300, 1))
	mock.ExpectCommit()

	repo := &ApplicationRepository{DB: db}
	res, err := repo.Hire(context.Background(), 10, 1, lifecycle.DefaultStages, nil)
	if err != nil {
		t.Fatalf("Hire: %v", err)
	}
	if res.Approved.ID != 10 || res.Approved.Status != models.ApplicationStatusApproved {
		t.Fatalf("unexpected approved application %+v", res.Approved)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].ID != 11 {
		t.Fatalf("only the other pending application should be rejected: %+v", res.Rejected)
	}
	if res.Job.Status != models.JobStatusInProgress || res.Job.AssignedFreelancerID == nil || *res.Job.AssignedFreelancerID != 2 {
		t.Fatalf("unexpected job %+v", res.Job)
	}
	p := res.Project
	if p.ID != 42 || p.Status != fsm.StatusPendingAgreement || p.CurrentStage != 0 || p.Version != 1 {
		t.Fatalf("unexpected project %+v", p)
	}
	for _, s := range p.Stages {
		if s.Status != models.StageStatusPending {
			t.Fatalf("stage %d should start pending, got %s", s.Index, s.Status)
		}
	}
	if len(res.Outcome.Messages) != 1 || res.Outcome.Messages[0].ID != 300 {
		t.Fatalf("opening system message not persisted: %+v", res.Outcome.Messages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
