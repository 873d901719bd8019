package academic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestValidateWorkItem(t *testing.T) {
	assert.NoError(t, ValidateWorkItem(WorkAssignment, intPtr(20)))
	assert.NoError(t, ValidateWorkItem(WorkHomework, nil))

	assert.Error(t, ValidateWorkItem(WorkAssignment, nil))
	assert.Error(t, ValidateWorkItem(WorkAssignment, intPtr(0)))
	assert.Error(t, ValidateWorkItem(WorkAssignment, intPtr(MarksCeiling+1)))
	assert.NoError(t, ValidateWorkItem(WorkAssignment, intPtr(MarksCeiling)))
	assert.Error(t, ValidateWorkItem(WorkHomework, intPtr(10)))
	assert.Error(t, ValidateWorkItem("project", nil))
}

func TestCheckTransitionIsOneWay(t *testing.T) {
	next, err := CheckTransition(SubmissionPending)
	require.NoError(t, err)
	assert.Equal(t, SubmissionChecked, next)

	_, err = CheckTransition(next)
	assert.True(t, errors.Is(err, ErrAlreadyChecked))

	_, err = CheckTransition("archived")
	assert.Error(t, err)
}

func TestValidateScore(t *testing.T) {
	assert.NoError(t, ValidateScore(WorkAssignment, intPtr(20), 20))
	assert.Error(t, ValidateScore(WorkAssignment, intPtr(20), 21))
	assert.Error(t, ValidateScore(WorkHomework, nil, -1))
	assert.NoError(t, ValidateScore(WorkHomework, nil, 7))
	assert.Error(t, ValidateScore(WorkHomework, nil, MarksCeiling+1))
	assert.Error(t, ValidateScore(WorkAssignment, intPtr(20), 12.345))
}
