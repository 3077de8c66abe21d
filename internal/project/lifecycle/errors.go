package lifecycle

import "errors"

var (
	ErrInvalidOperation  = errors.New("operation not allowed in current project state")
	ErrNotParticipant    = errors.New("user is not a party to this project")
	ErrNotClient         = errors.New("only the client can perform this action")
	ErrNotFreelancer     = errors.New("only the freelancer can perform this action")
	ErrNotJobOwner       = errors.New("only the job owner can hire")
	ErrJobNotOpen        = errors.New("job is not open")
	ErrApplicationState  = errors.New("application is not pending")
	ErrAlreadyCaptured   = errors.New("payment already captured")
	ErrStageOutOfRange   = errors.New("stage index out of range")
	ErrStageOutOfOrder   = errors.New("only the current stage can be completed")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrNoStages          = errors.New("stage template is empty")
	ErrProjectIncomplete = errors.New("project is not completed")
)
