package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/repository"
)

// UserRepository is the in-memory user table.
type UserRepository struct{ s *Store }

func (r *UserRepository) hydrate(u models.User) models.User {
	u.ClassID = nil
	if classID, ok := r.s.activeClassOf(u.ID); ok {
		u.ClassID = strPtr(classID)
	}
	return u
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			out := r.hydrate(u)
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := r.hydrate(u)
	return &out, nil
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.User
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if !academic.MatchesSearch(filter.Search, u.FullName, u.Email, string(u.Role)) {
			continue
		}
		matched = append(matched, r.hydrate(u))
	}
	sortByField(matched, filter.SortOrder, func(u models.User) string {
		switch filter.SortBy {
		case "full_name":
			return strings.ToLower(u.FullName)
		case "email":
			return strings.ToLower(u.Email)
		case "role":
			return string(u.Role)
		default:
			return timeKey(u.CreatedAt) + u.ID
		}
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.emailTaken(email, excludeID), nil
}

func (r *UserRepository) emailTaken(email, excludeID string) bool {
	for _, u := range r.s.users {
		if u.ID != excludeID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(user.Email, "") {
		return fmt.Errorf("create user: %w", repository.ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	stored := *user
	stored.ClassID = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users[user.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if r.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("update user: %w", repository.ErrDuplicate)
	}
	user.UpdatedAt = r.s.now()
	stored := *user
	stored.Role = current.Role
	stored.Active = current.Active
	stored.CreatedAt = current.CreatedAt
	stored.ClassID = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Active = active
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) CountByRole(ctx context.Context) ([]models.RoleCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	byRole := make(map[models.UserRole]*models.RoleCount)
	for _, u := range r.s.users {
		c, ok := byRole[u.Role]
		if !ok {
			c = &models.RoleCount{Role: u.Role}
			byRole[u.Role] = c
		}
		if u.Active {
			c.Active++
		} else {
			c.Inactive++
		}
	}
	counts := make([]models.RoleCount, 0, len(byRole))
	for _, c := range byRole {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Role < counts[j].Role })
	return counts, nil
}

// ClassRepository is the in-memory class table.
type ClassRepository struct{ s *Store }

func (r *ClassRepository) hydrate(c models.Class) models.Class {
	c.ClassTeacherName = nil
	if c.ClassTeacherID != nil {
		if u, ok := r.s.users[*c.ClassTeacherID]; ok {
			c.ClassTeacherName = strPtr(u.FullName)
		}
	}
	return c
}

func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Class
	for _, c := range r.s.classes {
		if filter.Active != nil && c.Active != *filter.Active {
			continue
		}
		c = r.hydrate(c)
		teacher := ""
		if c.ClassTeacherName != nil {
			teacher = *c.ClassTeacherName
		}
		if !academic.MatchesSearch(filter.Search, c.Name, c.Section, teacher) {
			continue
		}
		matched = append(matched, c)
	}
	sortByField(matched, filter.SortOrder, func(c models.Class) string {
		switch filter.SortBy {
		case "name":
			return strings.ToLower(c.Name)
		case "section":
			return strings.ToLower(c.Section)
		case "updated_at":
			return timeKey(c.UpdatedAt) + c.ID
		default:
			return timeKey(c.CreatedAt) + c.ID
		}
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := r.hydrate(c)
	return &out, nil
}

func (r *ClassRepository) ExistsActive(ctx context.Context, name, section, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.taken(name, section, excludeID), nil
}

func (r *ClassRepository) taken(name, section, excludeID string) bool {
	for _, c := range r.s.classes {
		if c.Active && c.ID != excludeID && strings.EqualFold(c.Name, name) && strings.EqualFold(c.Section, section) {
			return true
		}
	}
	return false
}

func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if class.Active && r.taken(class.Name, class.Section, "") {
		return fmt.Errorf("create class: %w", repository.ErrDuplicate)
	}
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := r.s.now()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	stored := *class
	stored.ClassTeacherName = nil
	r.s.classes[class.ID] = stored
	return nil
}

func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.classes[class.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if current.Active && r.taken(class.Name, class.Section, class.ID) {
		return fmt.Errorf("update class: %w", repository.ErrDuplicate)
	}
	class.UpdatedAt = r.s.now()
	current.Name = class.Name
	current.Section = class.Section
	current.ClassTeacherID = class.ClassTeacherID
	current.UpdatedAt = class.UpdatedAt
	r.s.classes[class.ID] = current
	return nil
}

func (r *ClassRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.classes[id]
	if !ok {
		return sql.ErrNoRows
	}
	if active && !c.Active && r.taken(c.Name, c.Section, id) {
		return fmt.Errorf("set class active: %w", repository.ErrDuplicate)
	}
	c.Active = active
	c.UpdatedAt = r.s.now()
	r.s.classes[id] = c
	return nil
}

func (r *ClassRepository) Count(ctx context.Context) (models.ActiveCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count models.ActiveCount
	for _, c := range r.s.classes {
		if c.Active {
			count.Active++
		} else {
			count.Inactive++
		}
	}
	return count, nil
}

// SubjectRepository is the in-memory subject table.
type SubjectRepository struct{ s *Store }

func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var matched []models.Subject
	for _, sub := range r.s.subjects {
		if filter.Active != nil && sub.Active != *filter.Active {
			continue
		}
		if !academic.MatchesSearch(filter.Search, sub.Name, sub.Code) {
			continue
		}
		matched = append(matched, sub)
	}
	sortByField(matched, filter.SortOrder, func(sub models.Subject) string {
		switch filter.SortBy {
		case "name":
			return strings.ToLower(sub.Name)
		case "code":
			return strings.ToLower(sub.Code)
		default:
			return timeKey(sub.CreatedAt) + sub.ID
		}
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &sub, nil
}

func (r *SubjectRepository) ExistsActiveByCode(ctx context.Context, code, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.taken(code, excludeID), nil
}

func (r *SubjectRepository) taken(code, excludeID string) bool {
	for _, sub := range r.s.subjects {
		if sub.Active && sub.ID != excludeID && strings.EqualFold(sub.Code, code) {
			return true
		}
	}
	return false
}

func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if subject.Active && r.taken(subject.Code, "") {
		return fmt.Errorf("create subject: %w", repository.ErrDuplicate)
	}
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := r.s.now()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now
	r.s.subjects[subject.ID] = *subject
	return nil
}

func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.subjects[subject.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if current.Active && r.taken(subject.Code, subject.ID) {
		return fmt.Errorf("update subject: %w", repository.ErrDuplicate)
	}
	subject.UpdatedAt = r.s.now()
	current.Name = subject.Name
	current.Code = subject.Code
	current.UpdatedAt = subject.UpdatedAt
	r.s.subjects[subject.ID] = current
	return nil
}

func (r *SubjectRepository) SetActive(ctx context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subjects[id]
	if !ok {
		return sql.ErrNoRows
	}
	if active && !sub.Active && r.taken(sub.Code, id) {
		return fmt.Errorf("set subject active: %w", repository.ErrDuplicate)
	}
	sub.Active = active
	sub.UpdatedAt = r.s.now()
	r.s.subjects[id] = sub
	return nil
}

func (r *SubjectRepository) Count(ctx context.Context) (models.ActiveCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count models.ActiveCount
	for _, sub := range r.s.subjects {
		if sub.Active {
			count.Active++
		} else {
			count.Inactive++
		}
	}
	return count, nil
}
