package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

const assignmentColumns = `id, class_id, subject_id, title, description, due_date, type, total_marks, created_by, created_at, updated_at`

// AssignmentRepository persists work items.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns work items ordered by due date.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var conditions []string
	var args []interface{}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(filter.Type))
	}
	query := "SELECT " + assignmentColumns + " FROM assignments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY due_date ASC, created_at ASC"

	var items []models.Assignment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return items, nil
}

// FindByID returns a work item.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	var item models.Assignment
	if err := r.db.GetContext(ctx, &item, "SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a work item.
func (r *AssignmentRepository) Create(ctx context.Context, item *models.Assignment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO assignments (id, class_id, subject_id, title, description, due_date, type, total_marks, created_by, created_at, updated_at)
        VALUES (:id, :class_id, :subject_id, :title, :description, :due_date, :type, :total_marks, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies a work item.
func (r *AssignmentRepository) Update(ctx context.Context, item *models.Assignment) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, description = :description, due_date = :due_date, type = :type, total_marks = :total_marks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return nil
}

// Delete removes a work item; submissions cascade.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}

// Stats counts submissions per work item.
func (r *AssignmentRepository) Stats(ctx context.Context, ids []string) (map[string]models.AssignmentStats, error) {
	result := make(map[string]models.AssignmentStats, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	const query = `SELECT assignment_id, COUNT(*) AS submitted, COUNT(*) FILTER (WHERE status = 'checked') AS checked
        FROM submissions WHERE assignment_id = ANY($1) GROUP BY assignment_id`
	var rows []models.AssignmentStats
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("assignment stats: %w", err)
	}
	for _, row := range rows {
		result[row.AssignmentID] = row
	}
	return result, nil
}
