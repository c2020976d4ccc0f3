package services

import (
	"errors"
	"strings"
)

// Common service errors
var (
	ErrNotFound     = errors.New("registro no encontrado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrInvalidState = errors.New("transición de estado inválida")
	ErrDuplicate    = errors.New("registro duplicado")
	ErrConflict     = errors.New("conflicto de concurrencia, intente de nuevo")
)

// ValidationError carries every missing or invalid field at once so the
// caller can fix the whole form in a single pass.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "faltan datos requeridos: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError from field names
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InfrastructureError marks a persistence failure inside an atomic write.
// The transaction rolled back with no partial state; the caller may retry
// later.
type InfrastructureError struct {
	Err error
}

func (e *InfrastructureError) Error() string {
	return "fallo de infraestructura: " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// IsInfrastructure reports whether err is an InfrastructureError
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}

// wrapInfra classifies an error coming out of a multi-step write: business
// errors pass through untouched, anything else is an infrastructure failure.
func wrapInfra(err error) error {
	if err == nil ||
		IsValidation(err) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, errStaleStage) {
		return err
	}
	return &InfrastructureError{Err: err}
}
