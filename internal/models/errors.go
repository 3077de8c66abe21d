package models

import (
	"errors"
)

var (
	ErrNoRecord            = errors.New("models: no matching record found")
	ErrInvalidCredentials  = errors.New("models: invalid credentials")
	ErrDuplicateEmail      = errors.New("models: duplicate email")
	ErrUserNotFound        = errors.New("models: user not found")
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrAlreadyApplied      = errors.New("already applied to this job")
	ErrAlreadyReviewed     = errors.New("project already reviewed")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrVersionConflict     = errors.New("record changed concurrently")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPaymentOrderUnknown = errors.New("payment order not found")
	ErrPaymentReused       = errors.New("payment already funds another escrow")
)
