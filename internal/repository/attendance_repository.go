package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

// AttendanceRepository persists attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListSession returns the records of a class-subject session on a day.
func (r *AttendanceRepository) ListSession(ctx context.Context, session models.AttendanceSession) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.student_id, u.full_name AS student_name, a.class_id, a.subject_id, '' AS subject_name, a.date, a.status, a.marked_by, a.created_at, a.updated_at
        FROM attendance_records a JOIN users u ON u.id = a.student_id
        WHERE a.class_id = $1 AND a.subject_id = $2 AND a.date = $3
        ORDER BY u.roll_no NULLS LAST, u.full_name`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, session.ClassID, session.SubjectID, session.Date); err != nil {
		return nil, fmt.Errorf("list attendance session: %w", err)
	}
	return records, nil
}

// UpsertSession writes all records in one transaction, overwriting earlier marks for the same key.
func (r *AttendanceRepository) UpsertSession(ctx context.Context, records []models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO attendance_records (id, student_id, class_id, subject_id, date, status, marked_by, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :subject_id, :date, :status, :marked_by, :created_at, :updated_at)
        ON CONFLICT (student_id, class_id, subject_id, date)
        DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert attendance: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}

// ListByStudent returns a student's attendance history, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.student_id, '' AS student_name, a.class_id, a.subject_id, s.name AS subject_name, a.date, a.status, a.marked_by, a.created_at, a.updated_at
        FROM attendance_records a JOIN subjects s ON s.id = a.subject_id
        WHERE a.student_id = $1
        ORDER BY a.date DESC, s.name`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}
