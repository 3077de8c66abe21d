package lifecycle

import (
	"fmt"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
)

// Proof identifies how escrow was funded.
type Proof struct {
	Method    string
	Reference string
}

// CapturePayment funds escrow and starts the first stage.
func CapturePayment(p *models.Project, payerID int, proof Proof, amount float64, now time.Time) (Outcome, error) {
	var out Outcome
	if payerID != p.ClientID {
		return out, ErrNotClient
	}
	if p.PaymentStatus != fsm.PaymentPending {
		return out, ErrAlreadyCaptured
	}
	if p.Status != fsm.StatusPendingPayment || !p.ClientAgreed || !p.FreelancerAgreed {
		return out, ErrInvalidOperation
	}
	if amount <= 0 {
		return out, ErrInvalidAmount
	}
	if len(p.Stages) == 0 {
		return out, ErrNoStages
	}
	if !fsm.CanTransition(p.Status, fsm.StatusInProgress) || !fsm.CanTransitionPayment(p.PaymentStatus, fsm.PaymentEscrow) {
		return out, ErrInvalidOperation
	}

	p.Status = fsm.StatusInProgress
	p.PaymentStatus = fsm.PaymentEscrow
	p.PaymentMethod = proof.Method
	p.EscrowAmount = amount
	p.CurrentStage = 0
	p.Stages[0].Status = models.StageStatusInProgress
	p.UpdatedAt = &now

	projectID := p.ID
	out.Transactions = append(out.Transactions, models.Transaction{
		ProjectID: &projectID,
		UserID:    p.ClientID,
		Type:      models.TransactionTypeEscrow,
		Amount:    amount,
		Method:    proof.Method,
		Reference: proof.Reference,
		CreatedAt: now,
	})
	out.system(p, fmt.Sprintf("Payment of %.2f secured in escrow via %s. Stage %q started.", amount, proof.Method, p.Stages[0].Name), now)
	out.Notices = append(out.Notices, Notice{
		Kind:       NoticePaymentCaptured,
		ProjectID:  p.ID,
		Recipients: []int{p.FreelancerID},
		Title:      "Escrow funded",
		Body:       fmt.Sprintf("%.2f is held in escrow for %s. You can start working.", amount, p.Title),
	})
	return out, nil
}

// Release pays the escrowed amount out to the freelancer.
func Release(p *models.Project, escrowTxID string, now time.Time) (Outcome, error) {
	var out Outcome
	if !fsm.CanTransitionPayment(p.PaymentStatus, fsm.PaymentReleased) || p.PaymentStatus == fsm.PaymentReleased {
		return out, ErrInvalidOperation
	}
	if p.EscrowAmount <= 0 {
		return out, ErrInvalidAmount
	}
	p.PaymentStatus = fsm.PaymentReleased
	p.UpdatedAt = &now

	projectID := p.ID
	var related *string
	if escrowTxID != "" {
		id := escrowTxID
		related = &id
	}
	out.Transactions = append(out.Transactions, models.Transaction{
		ProjectID: &projectID,
		UserID:    p.FreelancerID,
		Type:      models.TransactionTypeRelease,
		Amount:    p.EscrowAmount,
		Method:    models.PaymentMethodInternal,
		RelatedID: related,
		CreatedAt: now,
	})
	out.Credit = &Credit{UserID: p.FreelancerID, Amount: p.EscrowAmount}
	out.JobStatus = models.JobStatusCompleted
	out.system(p, fmt.Sprintf("Escrow of %.2f released to the freelancer.", p.EscrowAmount), now)
	out.Notices = append(out.Notices, Notice{
		Kind:       NoticePaymentReleased,
		ProjectID:  p.ID,
		Recipients: []int{p.FreelancerID},
		Title:      "Payment released",
		Body:       fmt.Sprintf("%.2f was added to your balance.", p.EscrowAmount),
	})
	return out, nil
}
