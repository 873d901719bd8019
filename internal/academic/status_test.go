package academic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, raw string) time.Time {
	t.Helper()
	day, err := ParseDay(raw)
	require.NoError(t, err)
	return day
}

func TestClassifyDue(t *testing.T) {
	now := mustDay(t, "2024-01-03").Add(15 * time.Hour)

	cases := []struct {
		due  string
		want DueStatus
	}{
		{"2024-01-01", DueOverdue},
		{"2024-01-02", DueOverdue},
		{"2024-01-03", DueSoon},
		{"2024-01-05", DueSoon},
		{"2024-01-06", DueActive},
		{"2024-02-01", DueActive},
	}
	for _, tc := range cases {
		t.Run(tc.due, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyDue(mustDay(t, tc.due), now))
		})
	}
}

func TestDueRuleUsesSchoolTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	rule := NewDueRule(jakarta, 2)

	// 20:00 UTC on Jan 2 is already Jan 3 in Jakarta.
	now := time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, DueOverdue, rule.Status(mustDay(t, "2024-01-02"), now))
	assert.Equal(t, DueOverdue, NewDueRule(nil, -1).Status(mustDay(t, "2024-01-01"), now))
	assert.Equal(t, DueSoon, NewDueRule(nil, -1).Status(mustDay(t, "2024-01-02"), now))
}

func TestAttendancePercentage(t *testing.T) {
	assert.Equal(t, 90, AttendancePercentage(18, 20))
	assert.Equal(t, 0, AttendancePercentage(0, 0))
	assert.Equal(t, 67, AttendancePercentage(2, 3))
	assert.Equal(t, 0, AttendancePercentage(-4, 10))
	assert.Equal(t, 0, AttendancePercentage(5, -1))
	assert.Equal(t, 100, AttendancePercentage(12, 10))
}

func TestAssignmentCompletion(t *testing.T) {
	assert.Equal(t, 0.0, AssignmentCompletion(3, 0))
	assert.Equal(t, 33.3, AssignmentCompletion(1, 3))
	assert.Equal(t, 66.7, AssignmentCompletion(2, 3))
	assert.Equal(t, 100.0, AssignmentCompletion(4, 4))
	assert.Equal(t, 0.0, AssignmentCompletion(-1, 4))
}

func TestClassDistribution(t *testing.T) {
	dist := ClassDistribution([]string{"c1", "c2", "c1", ""})
	assert.Equal(t, map[string]int{"c1": 2, "c2": 1, "": 1}, dist)
	assert.Empty(t, ClassDistribution(nil))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay(" 2024-03-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", FormatDay(day))

	for _, raw := range []string{"", "2024-3-1", "01/03/2024", "2024-02-30"} {
		_, err := ParseDay(raw)
		assert.Error(t, err, raw)
	}
}
