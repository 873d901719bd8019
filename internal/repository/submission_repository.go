package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
)

const submissionSelect = `SELECT s.id, s.assignment_id, s.student_id, u.full_name AS student_name, s.submitted_at, s.submission_text, s.status, s.marks_obtained, s.checked_at, s.checked_by
        FROM submissions s JOIN users u ON u.id = s.student_id`

// SubmissionRepository persists work submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// FindByID returns a submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, submissionSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByAssignmentStudent returns the single submission of a student for a work item.
func (r *SubmissionRepository) FindByAssignmentStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, submissionSelect+" WHERE s.assignment_id = $1 AND s.student_id = $2", assignmentID, studentID); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create inserts a pending submission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	sub.Status = academic.SubmissionPending
	const query = `INSERT INTO submissions (id, assignment_id, student_id, submitted_at, submission_text, status)
        VALUES (:id, :assignment_id, :student_id, :submitted_at, :submission_text, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return mapWriteError("create submission", err)
	}
	return nil
}

// ReplaceText overwrites a pending submission. It reports false when the submission is no longer pending.
func (r *SubmissionRepository) ReplaceText(ctx context.Context, id, text string, at time.Time) (bool, error) {
	const query = `UPDATE submissions SET submission_text = $2, submitted_at = $3 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, text, at)
	if err != nil {
		return false, fmt.Errorf("replace submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace submission: %w", err)
	}
	return affected > 0, nil
}

// MarkChecked records marks on a pending submission. It reports false when it was already checked.
func (r *SubmissionRepository) MarkChecked(ctx context.Context, id string, marks float64, checkedBy string, at time.Time) (bool, error) {
	const query = `UPDATE submissions SET status = 'checked', marks_obtained = $2, checked_by = $3, checked_at = $4 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, marks, checkedBy, at)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return affected > 0, nil
}

// ListByAssignment returns all submissions of a work item.
func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, submissionSelect+" WHERE s.assignment_id = $1 ORDER BY s.submitted_at", assignmentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// ListByStudent returns a student's submissions.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, submissionSelect+" WHERE s.student_id = $1 ORDER BY s.submitted_at DESC", studentID); err != nil {
		return nil, fmt.Errorf("list student submissions: %w", err)
	}
	return subs, nil
}

// CountPendingForTeacher counts unchecked submissions on pairs the teacher is assigned to.
func (r *SubmissionRepository) CountPendingForTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM submissions s
        JOIN assignments a ON a.id = s.assignment_id
        JOIN class_subject_assignments csa ON csa.class_id = a.class_id AND csa.subject_id = a.subject_id
        WHERE csa.teacher_id = $1 AND s.status = 'pending'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count pending submissions: %w", err)
	}
	return count, nil
}
