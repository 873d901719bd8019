package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

func TestDeleteTestRemovesMarksFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM marks WHERE test_id = $1")).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tests WHERE id = $1")).WithArgs("t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithMarks(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTestReportsStaffing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "class_id", "subject_id", "test_name", "test_date", "max_marks", "description", "created_by", "staffed", "created_at", "updated_at"}).
		AddRow("t1", "c1", "m1", "Unit-1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 50, "", nil, false, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN class_subject_assignments csa")).WithArgs("t1").WillReturnRows(rows)

	test, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, test.Staffed)
	assert.Equal(t, 50, test.MaxMarks)
}

func TestUpsertMarksRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("ON CONFLICT \\(test_id, student_id\\)").WillReturnError(errors.New("constraint"))
	mock.ExpectRollback()

	err := repo.UpsertBatch(context.Background(), []models.Mark{{TestID: "t1", StudentID: "s1", MarksObtained: 45}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMarksParsesNumeric(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMarkRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "test_id", "student_id", "marks_obtained", "remarks", "created_at", "updated_at"}).
		AddRow("k1", "t1", "s1", []byte("45.50"), nil, now, now)
	mock.ExpectQuery("FROM marks WHERE test_id").WithArgs("t1").WillReturnRows(rows)

	marks, err := repo.ListByTest(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 45.5, marks[0].MarksObtained)
}

func TestAssignmentStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE assignment_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id", "submitted", "checked"}).AddRow("w1", 3, 1))

	stats, err := repo.Stats(context.Background(), []string{"w1", "w2"})
	require.NoError(t, err)
	assert.Equal(t, 3, stats["w1"].Submitted)
	assert.Equal(t, 1, stats["w1"].Checked)
	assert.Zero(t, stats["w2"].Submitted)

	empty, err := repo.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkCheckedOnlyOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = 'pending'")).
		WithArgs("sub1", 18.0, "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkChecked(context.Background(), "sub1", 18, "t1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
