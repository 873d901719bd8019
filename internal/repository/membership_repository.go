package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

// MembershipRepository tracks which class each student belongs to.
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository constructs the repository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// ActiveByStudent returns the student's current membership or sql.ErrNoRows.
func (r *MembershipRepository) ActiveByStudent(ctx context.Context, studentID string) (*models.ClassMembership, error) {
	const query = `SELECT id, class_id, student_id, active, joined_at, left_at FROM class_students WHERE student_id = $1 AND active LIMIT 1`
	var m models.ClassMembership
	if err := r.db.GetContext(ctx, &m, query, studentID); err != nil {
		return nil, err
	}
	return &m, nil
}

// Add places a student in a class. A second active membership fails with ErrDuplicate.
func (r *MembershipRepository) Add(ctx context.Context, m *models.ClassMembership) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}
	m.Active = true
	const query = `INSERT INTO class_students (id, class_id, student_id, active, joined_at) VALUES (:id, :class_id, :student_id, :active, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return mapWriteError("add class student", err)
	}
	return nil
}

// End closes the active membership of a student in a class. It reports whether one existed.
func (r *MembershipRepository) End(ctx context.Context, classID, studentID string, at time.Time) (bool, error) {
	const query = `UPDATE class_students SET active = FALSE, left_at = $3 WHERE class_id = $1 AND student_id = $2 AND active`
	res, err := r.db.ExecContext(ctx, query, classID, studentID, at)
	if err != nil {
		return false, fmt.Errorf("end class membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("end class membership: %w", err)
	}
	return affected > 0, nil
}

// Roster lists the students currently enrolled in a class.
func (r *MembershipRepository) Roster(ctx context.Context, classID string) ([]models.RosterStudent, error) {
	const query = `SELECT u.id AS student_id, u.full_name, u.email, u.roll_no, u.admission_no, cs.joined_at
        FROM class_students cs JOIN users u ON u.id = cs.student_id
        WHERE cs.class_id = $1 AND cs.active
        ORDER BY u.roll_no NULLS LAST, u.full_name`
	var roster []models.RosterStudent
	if err := r.db.SelectContext(ctx, &roster, query, classID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return roster, nil
}

// StudentPlacements returns the class id of every active student, empty when unplaced.
func (r *MembershipRepository) StudentPlacements(ctx context.Context) ([]string, error) {
	const query = `SELECT COALESCE(cs.class_id, '') FROM users u
        LEFT JOIN class_students cs ON cs.student_id = u.id AND cs.active
        WHERE u.role = 'student' AND u.active`
	var classIDs []string
	if err := r.db.SelectContext(ctx, &classIDs, query); err != nil {
		return nil, fmt.Errorf("list student placements: %w", err)
	}
	return classIDs, nil
}
