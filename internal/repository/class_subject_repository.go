package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

const classSubjectColumns = `id, class_id, subject_id, teacher_id, created_at, updated_at`

const classSubjectDetailSelect = `SELECT csa.id, csa.class_id, csa.subject_id, csa.teacher_id, csa.created_at, csa.updated_at,
        c.name AS class_name, c.section AS class_section, s.name AS subject_name, s.code AS subject_code, u.full_name AS teacher_name
        FROM class_subject_assignments csa
        JOIN classes c ON c.id = csa.class_id
        JOIN subjects s ON s.id = csa.subject_id
        JOIN users u ON u.id = csa.teacher_id`

// ClassSubjectRepository stores which teacher teaches a subject in a class.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository constructs the repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// FindByID returns an assignment by id.
func (r *ClassSubjectRepository) FindByID(ctx context.Context, id string) (*models.ClassSubjectAssignment, error) {
	var a models.ClassSubjectAssignment
	if err := r.db.GetContext(ctx, &a, "SELECT "+classSubjectColumns+" FROM class_subject_assignments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByClassSubject returns the assignment for a class-subject pair.
func (r *ClassSubjectRepository) FindByClassSubject(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAssignment, error) {
	var a models.ClassSubjectAssignment
	query := "SELECT " + classSubjectColumns + " FROM class_subject_assignments WHERE class_id = $1 AND subject_id = $2"
	if err := r.db.GetContext(ctx, &a, query, classID, subjectID); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new mapping. A second mapping for the same pair fails with ErrDuplicate.
func (r *ClassSubjectRepository) Create(ctx context.Context, a *models.ClassSubjectAssignment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	const query = `INSERT INTO class_subject_assignments (id, class_id, subject_id, teacher_id, created_at, updated_at)
        VALUES (:id, :class_id, :subject_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return mapWriteError("create class subject assignment", err)
	}
	return nil
}

// UpdateTeacher replaces the teacher of an assignment.
func (r *ClassSubjectRepository) UpdateTeacher(ctx context.Context, id, teacherID string) error {
	const query = `UPDATE class_subject_assignments SET teacher_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, teacherID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update assignment teacher: %w", err)
	}
	return nil
}

// Delete removes the mapping only.
func (r *ClassSubjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_subject_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class subject assignment: %w", err)
	}
	return nil
}

// ListByClass returns the subjects taught in a class.
func (r *ClassSubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	var items []models.ClassSubjectDetail
	if err := r.db.SelectContext(ctx, &items, classSubjectDetailSelect+" WHERE csa.class_id = $1 ORDER BY s.name", classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return items, nil
}

// ListByTeacher returns the pairs a teacher is assigned to.
func (r *ClassSubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error) {
	var items []models.ClassSubjectDetail
	if err := r.db.SelectContext(ctx, &items, classSubjectDetailSelect+" WHERE csa.teacher_id = $1 ORDER BY c.name, c.section, s.name", teacherID); err != nil {
		return nil, fmt.Errorf("list teacher assignments: %w", err)
	}
	return items, nil
}

// CountWithInactiveTeacher counts pairs whose teacher account has been deactivated.
func (r *ClassSubjectRepository) CountWithInactiveTeacher(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM class_subject_assignments csa JOIN users u ON u.id = csa.teacher_id WHERE NOT u.active`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count unstaffed assignments: %w", err)
	}
	return count, nil
}
