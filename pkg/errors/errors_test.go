package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("looking up alice@example.com: %w", ErrNotFound)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestIsUnauthorized_Wrapped(t *testing.T) {
	err := fmt.Errorf("presence batch: %w", ErrUnauthorized)
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}

func TestIsNotConfigured(t *testing.T) {
	err := fmt.Errorf("batch add: %w", ErrNotConfigured)
	assert.True(t, IsNotConfigured(err))
}

func TestHelpers_NilError(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsNotConfigured(nil))
	assert.False(t, IsAlreadyExists(nil))
	assert.False(t, IsInvalidState(nil))
}
