package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeAndMatchesTemplate(t *testing.T) {
	err := Clone(ErrConflict, "student already assigned to a class")

	assert.Equal(t, "student already assigned to a class", err.Message)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.True(t, stdErrors.Is(err, ErrConflict))
	assert.False(t, stdErrors.Is(err, ErrValidation))
	assert.Equal(t, "conflict", ErrConflict.Message)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(fmt.Errorf("dial tcp: %w", sql.ErrConnDone))

	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, stdErrors.Is(err, sql.ErrConnDone))
}

func TestFromErrorPassesTypedErrorsThrough(t *testing.T) {
	typed := Validation(nil, "marks exceed maximum")
	wrapped := fmt.Errorf("save marks: %w", typed)

	assert.Same(t, typed, FromError(wrapped))
	assert.Nil(t, FromError(nil))
}
