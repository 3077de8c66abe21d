package lifecycle

import (
	"time"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
)

// Agree records the caller's consent. The second signature moves the project to pending-payment.
func Agree(p *models.Project, userID int, now time.Time) (Outcome, error) {
	var out Outcome
	if !p.IsParticipant(userID) {
		return out, ErrNotParticipant
	}
	alreadySigned := (userID == p.ClientID && p.ClientAgreed) || (userID == p.FreelancerID && p.FreelancerAgreed)
	if alreadySigned {
		return out, nil
	}
	if p.Status != fsm.StatusPendingAgreement {
		return out, ErrInvalidOperation
	}

	role := "Client"
	if userID == p.ClientID {
		p.ClientAgreed = true
	} else {
		p.FreelancerAgreed = true
		role = "Freelancer"
	}
	p.UpdatedAt = &now

	if !(p.ClientAgreed && p.FreelancerAgreed) {
		out.system(p, role+" signed the agreement.", now)
		out.Notices = append(out.Notices, Notice{
			Kind:       NoticeAgreementSigned,
			ProjectID:  p.ID,
			Recipients: []int{p.Counterpart(userID)},
			Title:      "Agreement signed",
			Body:       role + " signed the agreement for " + p.Title + ".",
		})
		return out, nil
	}

	if !fsm.CanTransition(p.Status, fsm.StatusPendingPayment) {
		return Outcome{}, ErrInvalidOperation
	}
	p.Status = fsm.StatusPendingPayment
	out.system(p, "Both parties signed the agreement. Waiting for the client to fund escrow.", now)
	out.Notices = append(out.Notices, Notice{
		Kind:       NoticeAgreed,
		ProjectID:  p.ID,
		Recipients: []int{p.ClientID, p.FreelancerID},
		Title:      "Agreement complete",
		Body:       p.Title + " is ready for payment.",
	})
	return out, nil
}
