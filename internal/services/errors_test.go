package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapInfraPassesBusinessErrorsThrough(t *testing.T) {
	for _, err := range []error{
		nil,
		ErrNotFound,
		ErrUnauthorized,
		ErrInvalidState,
		ErrDuplicate,
		ErrConflict,
		errStaleStage,
		NewValidationError("prima"),
	} {
		assert.Equal(t, err, wrapInfra(err))
		assert.False(t, IsInfrastructure(wrapInfra(err)))
	}
}

func TestWrapInfraWrapsUnknownFailures(t *testing.T) {
	cause := errors.New("database is locked")
	wrapped := wrapInfra(cause)

	assert.True(t, IsInfrastructure(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "fallo de infraestructura")
}
