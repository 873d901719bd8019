package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

// MarkRepository persists test marks.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByTest returns the stored marks of a test.
func (r *MarkRepository) ListByTest(ctx context.Context, testID string) ([]models.Mark, error) {
	const query = `SELECT id, test_id, student_id, marks_obtained, remarks, created_at, updated_at FROM marks WHERE test_id = $1`
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, testID); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// UpsertBatch writes marks in one transaction keyed by test and student.
func (r *MarkRepository) UpsertBatch(ctx context.Context, marks []models.Mark) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO marks (id, test_id, student_id, marks_obtained, remarks, created_at, updated_at)
        VALUES (:id, :test_id, :student_id, :marks_obtained, :remarks, :created_at, :updated_at)
        ON CONFLICT (test_id, student_id)
        DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, remarks = EXCLUDED.remarks, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit marks: %w", err)
	}
	return nil
}

// ListByStudent returns a student's marks with test details, most recent first.
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT t.id AS test_id, t.test_name, t.test_date, t.max_marks, t.subject_id, s.name AS subject_name, m.marks_obtained
        FROM marks m
        JOIN tests t ON t.id = m.test_id
        JOIN subjects s ON s.id = t.subject_id
        WHERE m.student_id = $1
        ORDER BY t.test_date DESC LIMIT %d`, limit)
	var marks []models.StudentMark
	if err := r.db.SelectContext(ctx, &marks, query, studentID); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return marks, nil
}
