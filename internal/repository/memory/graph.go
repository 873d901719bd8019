package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/repository"
)

// ClassSubjectRepository is the in-memory class-subject mapping table.
type ClassSubjectRepository struct{ s *Store }

func (r *ClassSubjectRepository) FindByID(ctx context.Context, id string) (*models.ClassSubjectAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.mappings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *ClassSubjectRepository) FindByClassSubject(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.mappings {
		if a.ClassID == classID && a.SubjectID == subjectID {
			out := a
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *ClassSubjectRepository) Create(ctx context.Context, a *models.ClassSubjectAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.staffed(a.ClassID, a.SubjectID) {
		return fmt.Errorf("create class subject assignment: %w", repository.ErrDuplicate)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := r.s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	r.s.mappings[a.ID] = *a
	return nil
}

func (r *ClassSubjectRepository) UpdateTeacher(ctx context.Context, id, teacherID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.mappings[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.TeacherID = teacherID
	a.UpdatedAt = r.s.now()
	r.s.mappings[id] = a
	return nil
}

func (r *ClassSubjectRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.mappings, id)
	return nil
}

func (r *ClassSubjectRepository) detail(a models.ClassSubjectAssignment) models.ClassSubjectDetail {
	class := r.s.classes[a.ClassID]
	subject := r.s.subjects[a.SubjectID]
	return models.ClassSubjectDetail{
		ClassSubjectAssignment: a,
		ClassName:              class.Name,
		ClassSection:           class.Section,
		SubjectName:            subject.Name,
		SubjectCode:            subject.Code,
		TeacherName:            r.s.userName(a.TeacherID),
	}
}

func (r *ClassSubjectRepository) list(match func(models.ClassSubjectAssignment) bool) []models.ClassSubjectDetail {
	items := []models.ClassSubjectDetail{}
	for _, a := range r.s.mappings {
		if match(a) {
			items = append(items, r.detail(a))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		ki := strings.ToLower(items[i].ClassName + "\x00" + items[i].ClassSection + "\x00" + items[i].SubjectName)
		kj := strings.ToLower(items[j].ClassName + "\x00" + items[j].ClassSection + "\x00" + items[j].SubjectName)
		return ki < kj
	})
	return items
}

func (r *ClassSubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(a models.ClassSubjectAssignment) bool { return a.ClassID == classID }), nil
}

func (r *ClassSubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(a models.ClassSubjectAssignment) bool { return a.TeacherID == teacherID }), nil
}

func (r *ClassSubjectRepository) CountWithInactiveTeacher(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, a := range r.s.mappings {
		if u, ok := r.s.users[a.TeacherID]; !ok || !u.Active {
			count++
		}
	}
	return count, nil
}

// MembershipRepository is the in-memory class_students table.
type MembershipRepository struct{ s *Store }

func (r *MembershipRepository) ActiveByStudent(ctx context.Context, studentID string) (*models.ClassMembership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.memberships {
		if m.StudentID == studentID && m.Active {
			out := m
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *MembershipRepository) Add(ctx context.Context, m *models.ClassMembership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.activeClassOf(m.StudentID); ok {
		return fmt.Errorf("add class student: %w", repository.ErrDuplicate)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = r.s.now()
	}
	m.Active = true
	r.s.memberships[m.ID] = *m
	return nil
}

func (r *MembershipRepository) End(ctx context.Context, classID, studentID string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, m := range r.s.memberships {
		if m.ClassID == classID && m.StudentID == studentID && m.Active {
			left := at
			m.Active = false
			m.LeftAt = &left
			r.s.memberships[id] = m
			return true, nil
		}
	}
	return false, nil
}

func (r *MembershipRepository) Roster(ctx context.Context, classID string) ([]models.RosterStudent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	roster := []models.RosterStudent{}
	for _, m := range r.s.memberships {
		if m.ClassID != classID || !m.Active {
			continue
		}
		u := r.s.users[m.StudentID]
		roster = append(roster, models.RosterStudent{
			StudentID:   u.ID,
			FullName:    u.FullName,
			Email:       u.Email,
			RollNo:      u.RollNo,
			AdmissionNo: u.AdmissionNo,
			JoinedAt:    m.JoinedAt,
		})
	}
	sort.Slice(roster, func(i, j int) bool {
		ri, rj := roster[i].RollNo, roster[j].RollNo
		switch {
		case ri != nil && rj == nil:
			return true
		case ri == nil && rj != nil:
			return false
		case ri != nil && rj != nil && *ri != *rj:
			return *ri < *rj
		}
		return roster[i].FullName < roster[j].FullName
	})
	return roster, nil
}

func (r *MembershipRepository) StudentPlacements(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := []string{}
	for _, u := range r.s.users {
		if u.Role != models.RoleStudent || !u.Active {
			continue
		}
		classID, _ := r.s.activeClassOf(u.ID)
		ids = append(ids, classID)
	}
	return ids, nil
}
