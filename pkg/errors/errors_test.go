package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedErrorCatalog(t *testing.T) {
	catalog := map[*Error]int{
		ErrNotFound:        http.StatusNotFound,
		ErrForbidden:       http.StatusForbidden,
		ErrUnauthorized:    http.StatusUnauthorized,
		ErrConflict:        http.StatusConflict,
		ErrValidation:      http.StatusBadRequest,
		ErrInternal:        http.StatusInternalServerError,
		ErrFinalized:       http.StatusConflict,
		ErrCacheMiss:       http.StatusNotFound,
		ErrDuplicateWeek:   http.StatusConflict,
		ErrNoEntriesPlaced: http.StatusUnprocessableEntity,
		ErrSlotOccupied:    http.StatusConflict,
		ErrFacultyConflict: http.StatusConflict,
	}

	codes := make(map[string]bool, len(catalog))
	for e, status := range catalog {
		assert.Equal(t, status, e.Status, e.Code)
		assert.False(t, codes[e.Code], "duplicate code %s", e.Code)
		codes[e.Code] = true
	}
	for _, code := range []string{"INVALID_CREDENTIALS", "ACCOUNT_INACTIVE", "PRECONDITION_FAILED"} {
		assert.False(t, codes[code], code)
	}
}

func TestCloneKeepsCodeAndStatus(t *testing.T) {
	clone := Clone(ErrSlotOccupied, "MONDAY slot 2 is taken")
	assert.Equal(t, ErrSlotOccupied.Code, clone.Code)
	assert.Equal(t, http.StatusConflict, clone.Status)
	assert.Equal(t, "MONDAY slot 2 is taken", clone.Error())
	assert.NotEqual(t, ErrSlotOccupied.Message, clone.Message)

	assert.Equal(t, ErrFinalized.Message, Clone(ErrFinalized, "").Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestIsAndFromErrorThroughWrapping(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	wrapped := fmt.Errorf("generate: %w", Wrap(cause, ErrDuplicateWeek.Code, ErrDuplicateWeek.Status, "week exists"))

	assert.True(t, Is(wrapped, ErrDuplicateWeek))
	assert.False(t, Is(wrapped, ErrSlotOccupied))
	assert.False(t, Is(nil, ErrDuplicateWeek))
	assert.ErrorIs(t, wrapped, cause)

	typed := FromError(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, ErrDuplicateWeek.Code, typed.Code)

	plain := FromError(cause)
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Nil(t, FromError(nil))
}
