package lifecycle

import (
	"time"

	"trusthire/internal/models"
)

// Notice kinds emitted by lifecycle transitions.
const (
	NoticeHired           = "project.hired"
	NoticeAgreed          = "project.agreed"
	NoticeAgreementSigned = "project.agreement_signed"
	NoticePaymentCaptured = "project.payment_captured"
	NoticeStageCompleted  = "project.stage_completed"
	NoticeCompleted       = "project.completed"
	NoticePaymentReleased = "project.payment_released"
	NoticeRated           = "project.rated"
)

// Credit adds an amount to a user's earnings and available balance.
type Credit struct {
	UserID int
	Amount float64
}

// Notice is something a participant should hear about after the transition commits.
type Notice struct {
	Kind       string
	ProjectID  int
	Recipients []int
	Title      string
	Body       string
}

// Outcome lists the side effects a transition requires. The repository
// persists all of them in the same database transaction as the project.
type Outcome struct {
	Transactions []models.Transaction
	Messages     []models.Message
	Credit       *Credit
	JobStatus    string
	Notices      []Notice
}

func (o *Outcome) merge(other Outcome) {
	o.Transactions = append(o.Transactions, other.Transactions...)
	o.Messages = append(o.Messages, other.Messages...)
	o.Notices = append(o.Notices, other.Notices...)
	if other.Credit != nil {
		o.Credit = other.Credit
	}
	if other.JobStatus != "" {
		o.JobStatus = other.JobStatus
	}
}

func (o *Outcome) system(p *models.Project, text string, now time.Time) {
	o.Messages = append(o.Messages, models.Message{
		ProjectID: p.ID,
		Kind:      models.MessageKindSystem,
		Text:      text,
		CreatedAt: now,
	})
}
