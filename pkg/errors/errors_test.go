package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, ErrInternal.Message, err.Message)
}

func TestFromErrorKeepsTyped(t *testing.T) {
	wrapped := fmt.Errorf("gate: %w", Clone(ErrDeadlinePassed, "exam_questions deadline has passed"))
	err := FromError(wrapped)
	assert.Equal(t, "DEADLINE_PASSED", err.Code)
	assert.Equal(t, http.StatusForbidden, err.Status)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "academic year not found")
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
	assert.False(t, Is(errors.New("plain"), ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNoCurrentTerm, "custom")
	assert.Equal(t, "custom", clone.Message)
	assert.Equal(t, "no current academic term set", ErrNoCurrentTerm.Message)
}
