package services

import (
	"errors"
	"fmt"

	"github.com/tvkcanada/tvk-be/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrAlreadyMember      = errors.New("user already has an active membership")
	ErrInvalidTransition  = errors.New("invalid membership status change")
	ErrUnknownPlan        = errors.New("unknown membership plan")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrPaymentsDisabled   = errors.New("online payments are not configured")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
	ErrPDFUnavailable     = errors.New("pdf rendering is not available")
)

// ValidationError describes an invalid field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// notFound converts repository.ErrNotFound into ErrNotFound and leaves other errors alone.
func notFound(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
