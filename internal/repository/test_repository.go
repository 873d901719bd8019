package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

const testSelect = `SELECT t.id, t.class_id, t.subject_id, t.test_name, t.test_date, t.max_marks, t.description, t.created_by,
        (csa.id IS NOT NULL) AS staffed, t.created_at, t.updated_at
        FROM tests t LEFT JOIN class_subject_assignments csa ON csa.class_id = t.class_id AND csa.subject_id = t.subject_id`

// TestRepository persists tests.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// List returns tests, newest first. Staffed reports whether the pair still has a teacher mapping.
func (r *TestRepository) List(ctx context.Context, filter models.TestFilter) ([]models.Test, error) {
	var conditions []string
	var args []interface{}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("t.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("t.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	query := testSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.test_date DESC, t.created_at DESC"

	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// FindByID returns a test.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	var test models.Test
	if err := r.db.GetContext(ctx, &test, testSelect+" WHERE t.id = $1", id); err != nil {
		return nil, err
	}
	return &test, nil
}

// Create inserts a test.
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	const query = `INSERT INTO tests (id, class_id, subject_id, test_name, test_date, max_marks, description, created_by, created_at, updated_at)
        VALUES (:id, :class_id, :subject_id, :test_name, :test_date, :max_marks, :description, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// Update modifies the editable fields of a test.
func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	test.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tests SET test_name = :test_name, test_date = :test_date, max_marks = :max_marks, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	return nil
}

// DeleteWithMarks removes a test and every mark recorded against it.
func (r *TestRepository) DeleteWithMarks(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM marks WHERE test_id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete test marks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tests WHERE id = $1`, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete test: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit test delete: %w", err)
	}
	return nil
}
