package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogUsableBeforeSetup(t *testing.T) {
	require.NotNil(t, Log)
	// Must not panic even if Setup never ran
	Info("mensaje de arranque", "key", "value")
}

func TestWithCarriesAttributes(t *testing.T) {
	l := With("job", "sweep")
	assert.NotNil(t, l)
}
