package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

const classSelect = `SELECT c.id, c.name, c.section, c.class_teacher_id, t.full_name AS class_teacher_name, c.active, c.created_at, c.updated_at
        FROM classes c LEFT JOIN users t ON t.id = c.class_teacher_id`

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filter criteria. Search covers name, section and class teacher name.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	where := " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if strings.TrimSpace(filter.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(concat_ws(' ', c.name, c.section, t.full_name)) LIKE $%d", len(args)+1))
		args = append(args, searchPattern(filter.Search))
	}
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderClause(filter.SortBy, filter.SortOrder, "created_at", map[string]string{
		"name":       "c.name",
		"section":    "c.section",
		"created_at": "c.created_at",
		"updated_at": "c.updated_at",
	})
	_, size, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT %d OFFSET %d", classSelect, where, order, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM classes c LEFT JOIN users t ON t.id = c.class_teacher_id" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	var class models.Class
	if err := r.db.GetContext(ctx, &class, classSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsActive checks whether another active class already uses the name and section.
func (r *ClassRepository) ExistsActive(ctx context.Context, name, section, excludeID string) (bool, error) {
	query := "SELECT 1 FROM classes WHERE active AND LOWER(name) = LOWER($1) AND LOWER(section) = LOWER($2)"
	args := []interface{}{name, section}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check class name: %w", err)
	}
	return true, nil
}

// Create persists a class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, section, class_teacher_id, active, created_at, updated_at) VALUES (:id, :name, :section, :class_teacher_id, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return mapWriteError("create class", err)
	}
	return nil
}

// Update modifies a class record.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, section = :section, class_teacher_id = :class_teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return mapWriteError("update class", err)
	}
	return nil
}

// SetActive toggles the active flag without touching related records.
func (r *ClassRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE classes SET active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return mapWriteError("set class active", err)
	}
	return nil
}

// Count returns active and inactive totals.
func (r *ClassRepository) Count(ctx context.Context) (models.ActiveCount, error) {
	const query = `SELECT COUNT(*) FILTER (WHERE active) AS active, COUNT(*) FILTER (WHERE NOT active) AS inactive FROM classes`
	var count models.ActiveCount
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return count, fmt.Errorf("count classes: %w", err)
	}
	return count, nil
}
