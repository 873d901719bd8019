package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

func TestAddMembershipDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectExec("INSERT INTO class_students").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Add(context.Background(), &models.ClassMembership{ClassID: "c2", StudentID: "s1"})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestEndMembership(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE class_students SET active = FALSE")).
		WithArgs("c1", "s1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ended, err := repo.End(context.Background(), "c1", "s1", at)
	require.NoError(t, err)
	assert.True(t, ended)
}

func TestStudentPlacements(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMembershipRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(cs.class_id, '')")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("c1").AddRow("").AddRow("c1"))

	ids, err := repo.StudentPlacements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "", "c1"}, ids)
}
