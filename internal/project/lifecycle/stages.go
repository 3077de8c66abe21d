package lifecycle

import (
	"fmt"
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
)

// CompleteStage marks the current stage completed and promotes the next one.
// Completing the last stage completes the project and releases escrow.
func CompleteStage(p *models.Project, index, userID int, escrowTxID string, now time.Time) (Outcome, error) {
	var out Outcome
	if userID != p.FreelancerID {
		return out, ErrNotFreelancer
	}
	if p.Status != fsm.StatusInProgress || p.PaymentStatus != fsm.PaymentEscrow {
		return out, ErrInvalidOperation
	}
	if index < 0 || index >= len(p.Stages) {
		return out, ErrStageOutOfRange
	}
	if index != p.CurrentStage || p.Stages[index].Status != models.StageStatusInProgress {
		return out, ErrStageOutOfOrder
	}

	p.Stages[index].Status = models.StageStatusCompleted
	p.Stages[index].CompletedAt = &now
	p.UpdatedAt = &now

	if index < len(p.Stages)-1 {
		p.Stages[index+1].Status = models.StageStatusInProgress
		p.CurrentStage = index + 1
		out.system(p, fmt.Sprintf("Stage %q completed. Stage %q started.", p.Stages[index].Name, p.Stages[index+1].Name), now)
		out.Notices = append(out.Notices, Notice{
			Kind:       NoticeStageCompleted,
			ProjectID:  p.ID,
			Recipients: []int{p.ClientID},
			Title:      "Stage completed",
			Body:       fmt.Sprintf("%s: %s is done.", p.Title, p.Stages[index].Name),
		})
		return out, nil
	}

	if !fsm.CanTransition(p.Status, fsm.StatusCompleted) {
		return Outcome{}, ErrInvalidOperation
	}
	p.Status = fsm.StatusCompleted
	p.CompletedAt = &now
	out.system(p, fmt.Sprintf("Final stage %q completed. Project finished.", p.Stages[index].Name), now)
	out.Notices = append(out.Notices, Notice{
		Kind:       NoticeCompleted,
		ProjectID:  p.ID,
		Recipients: []int{p.ClientID},
		Title:      "Project completed",
		Body:       p.Title + " is complete. Leave a rating for your freelancer.",
	})

	release, err := Release(p, escrowTxID, now)
	if err != nil {
		return Outcome{}, err
	}
	out.merge(release)
	return out, nil
}

// AttachDeliverable stores the uploaded file URL on an active stage.
func AttachDeliverable(p *models.Project, index, userID int, url string, now time.Time) error {
	if userID != p.FreelancerID {
		return ErrNotFreelancer
	}
	if p.Status != fsm.StatusInProgress {
		return ErrInvalidOperation
	}
	if index < 0 || index >= len(p.Stages) {
		return ErrStageOutOfRange
	}
	if p.Stages[index].Status != models.StageStatusInProgress {
		return ErrStageOutOfOrder
	}
	p.Stages[index].DeliverableURL = url
	p.UpdatedAt = &now
	return nil
}
