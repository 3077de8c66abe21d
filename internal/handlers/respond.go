package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"trusthire/internal/idempotency"
	"trusthire/internal/logger"
	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
	"trusthire/internal/project/lifecycle"
	"trusthire/internal/project/pay"
	"trusthire/internal/services"
)

// Responder writes JSON bodies and maps domain errors to status codes.
type Responder struct {
	Log logger.Logger
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (rs Responder) JSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, v)
}

func (rs Responder) BadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func (rs Responder) Unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}

// Error hides internal failures behind a generic message and logs them.
func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if rs.Log != nil {
			rs.Log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	var gwErr *pay.GatewayError
	switch {
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrGatewayUnavailable),
		errors.Is(err, pay.ErrNoExchangeRate):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNoRecord),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrJobNotFound),
		errors.Is(err, models.ErrApplicationNotFound),
		errors.Is(err, models.ErrProjectNotFound),
		errors.Is(err, models.ErrPaymentOrderUnknown):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, lifecycle.ErrNotParticipant),
		errors.Is(err, lifecycle.ErrNotClient),
		errors.Is(err, lifecycle.ErrNotFreelancer),
		errors.Is(err, lifecycle.ErrNotJobOwner):
		return http.StatusForbidden
	case errors.Is(err, fsm.ErrInvalidTransition),
		errors.Is(err, models.ErrVersionConflict),
		errors.Is(err, models.ErrPaymentReused),
		errors.Is(err, idempotency.ErrInFlight),
		errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrAlreadyApplied),
		errors.Is(err, models.ErrAlreadyReviewed),
		errors.Is(err, lifecycle.ErrAlreadyCaptured),
		errors.Is(err, lifecycle.ErrInvalidOperation),
		errors.Is(err, lifecycle.ErrJobNotOpen),
		errors.Is(err, lifecycle.ErrApplicationState),
		errors.Is(err, lifecycle.ErrStageOutOfOrder),
		errors.Is(err, lifecycle.ErrProjectIncomplete):
		return http.StatusConflict
	case errors.Is(err, pay.ErrInvalidSignature),
		errors.Is(err, pay.ErrMissingProof),
		errors.Is(err, pay.ErrAmountMismatch),
		errors.Is(err, pay.ErrTxNotFound),
		errors.Is(err, pay.ErrTxFailed),
		errors.Is(err, pay.ErrWrongRecipient),
		errors.Is(err, pay.ErrNotConfirmed),
		errors.Is(err, pay.ErrInsufficientValue):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, lifecycle.ErrInvalidAmount),
		errors.Is(err, lifecycle.ErrInvalidRating),
		errors.Is(err, lifecycle.ErrStageOutOfRange),
		errors.Is(err, lifecycle.ErrNoStages),
		errors.Is(err, pay.ErrMethodDisabled),
		isForeignKeyConstraintError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
