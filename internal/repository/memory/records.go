package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/repository"
)

// AttendanceRepository is the in-memory attendance table.
type AttendanceRepository struct{ s *Store }

func keyOf(rec models.AttendanceRecord) attendanceKey {
	return attendanceKey{studentID: rec.StudentID, classID: rec.ClassID, subjectID: rec.SubjectID, date: rec.Date.String()}
}

func (r *AttendanceRepository) ListSession(ctx context.Context, session models.AttendanceSession) ([]models.AttendanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	day := session.Date.String()
	records := []models.AttendanceRecord{}
	for key, rec := range r.s.attendance {
		if key.classID == session.ClassID && key.subjectID == session.SubjectID && key.date == day {
			rec.StudentName = r.s.userName(rec.StudentID)
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentName < records[j].StudentName })
	return records, nil
}

func (r *AttendanceRepository) UpsertSession(ctx context.Context, records []models.AttendanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	for i := range records {
		key := keyOf(records[i])
		if existing, ok := r.s.attendance[key]; ok {
			records[i].ID = existing.ID
			records[i].CreatedAt = existing.CreatedAt
		}
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].UpdatedAt = now
		stored := records[i]
		stored.StudentName, stored.SubjectName = "", ""
		r.s.attendance[key] = stored
	}
	return nil
}

func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	records := []models.AttendanceRecord{}
	for _, rec := range r.s.attendance {
		if rec.StudentID == studentID {
			rec.SubjectName = r.s.subjects[rec.SubjectID].Name
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date.Time) {
			return records[i].Date.After(records[j].Date.Time)
		}
		return records[i].SubjectName < records[j].SubjectName
	})
	return records, nil
}

// TestRepository is the in-memory test table.
type TestRepository struct{ s *Store }

func (r *TestRepository) hydrate(t models.Test) models.Test {
	t.Staffed = r.s.staffed(t.ClassID, t.SubjectID)
	return t
}

func (r *TestRepository) List(ctx context.Context, filter models.TestFilter) ([]models.Test, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tests := []models.Test{}
	for _, t := range r.s.tests {
		if filter.ClassID != "" && t.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && t.SubjectID != filter.SubjectID {
			continue
		}
		tests = append(tests, r.hydrate(t))
	}
	sort.Slice(tests, func(i, j int) bool {
		if !tests[i].TestDate.Equal(tests[j].TestDate.Time) {
			return tests[i].TestDate.After(tests[j].TestDate.Time)
		}
		return tests[i].CreatedAt.After(tests[j].CreatedAt)
	})
	return tests, nil
}

func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := r.hydrate(t)
	return &out, nil
}

func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	now := r.s.now()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
	}
	test.UpdatedAt = now
	r.s.tests[test.ID] = *test
	return nil
}

func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tests[test.ID]
	if !ok {
		return sql.ErrNoRows
	}
	test.UpdatedAt = r.s.now()
	current.TestName = test.TestName
	current.TestDate = test.TestDate
	current.MaxMarks = test.MaxMarks
	current.Description = test.Description
	current.UpdatedAt = test.UpdatedAt
	r.s.tests[test.ID] = current
	return nil
}

func (r *TestRepository) DeleteWithMarks(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key := range r.s.marks {
		if key.testID == id {
			delete(r.s.marks, key)
		}
	}
	delete(r.s.tests, id)
	return nil
}

// MarkRepository is the in-memory marks table.
type MarkRepository struct{ s *Store }

func (r *MarkRepository) ListByTest(ctx context.Context, testID string) ([]models.Mark, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	marks := []models.Mark{}
	for key, m := range r.s.marks {
		if key.testID == testID {
			marks = append(marks, m)
		}
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].StudentID < marks[j].StudentID })
	return marks, nil
}

func (r *MarkRepository) UpsertBatch(ctx context.Context, marks []models.Mark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range marks {
		if _, ok := r.s.tests[m.TestID]; !ok {
			return fmt.Errorf("upsert mark: test %s: %w", m.TestID, sql.ErrNoRows)
		}
	}
	now := r.s.now()
	for i := range marks {
		key := markKey{testID: marks[i].TestID, studentID: marks[i].StudentID}
		if existing, ok := r.s.marks[key]; ok {
			marks[i].ID = existing.ID
			marks[i].CreatedAt = existing.CreatedAt
		}
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		r.s.marks[key] = marks[i]
	}
	return nil
}

func (r *MarkRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.StudentMark{}
	for key, m := range r.s.marks {
		if key.studentID != studentID {
			continue
		}
		t := r.s.tests[key.testID]
		out = append(out, models.StudentMark{
			TestID:        t.ID,
			TestName:      t.TestName,
			TestDate:      t.TestDate,
			MaxMarks:      t.MaxMarks,
			SubjectID:     t.SubjectID,
			SubjectName:   r.s.subjects[t.SubjectID].Name,
			MarksObtained: m.MarksObtained,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestDate.After(out[j].TestDate.Time) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AssignmentRepository is the in-memory work item table.
type AssignmentRepository struct{ s *Store }

func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := []models.Assignment{}
	for _, a := range r.s.assignments {
		if filter.ClassID != "" && a.ClassID != filter.ClassID {
			continue
		}
		if filter.SubjectID != "" && a.SubjectID != filter.SubjectID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].DueDate.Equal(items[j].DueDate.Time) {
			return items[i].DueDate.Before(items[j].DueDate.Time)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, item *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := r.s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	r.s.assignments[item.ID] = *item
	return nil
}

func (r *AssignmentRepository) Update(ctx context.Context, item *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.assignments[item.ID]
	if !ok {
		return sql.ErrNoRows
	}
	item.UpdatedAt = r.s.now()
	current.Title = item.Title
	current.Description = item.Description
	current.DueDate = item.DueDate
	current.Type = item.Type
	current.TotalMarks = item.TotalMarks
	current.UpdatedAt = item.UpdatedAt
	r.s.assignments[item.ID] = current
	return nil
}

func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for subID, sub := range r.s.submissions {
		if sub.AssignmentID == id {
			delete(r.s.submissions, subID)
		}
	}
	delete(r.s.assignments, id)
	return nil
}

func (r *AssignmentRepository) Stats(ctx context.Context, ids []string) (map[string]models.AssignmentStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	result := make(map[string]models.AssignmentStats, len(ids))
	for _, sub := range r.s.submissions {
		if _, ok := wanted[sub.AssignmentID]; !ok {
			continue
		}
		st := result[sub.AssignmentID]
		st.AssignmentID = sub.AssignmentID
		st.Submitted++
		if sub.Status == academic.SubmissionChecked {
			st.Checked++
		}
		result[sub.AssignmentID] = st
	}
	return result, nil
}

// SubmissionRepository is the in-memory submissions table.
type SubmissionRepository struct{ s *Store }

func (r *SubmissionRepository) hydrate(sub models.Submission) models.Submission {
	sub.StudentName = r.s.userName(sub.StudentID)
	return sub
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := r.hydrate(sub)
	return &out, nil
}

func (r *SubmissionRepository) FindByAssignmentStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID && sub.StudentID == studentID {
			out := r.hydrate(sub)
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return fmt.Errorf("create submission: %w", repository.ErrDuplicate)
		}
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = r.s.now()
	}
	sub.Status = academic.SubmissionPending
	stored := *sub
	stored.StudentName = ""
	r.s.submissions[sub.ID] = stored
	return nil
}

func (r *SubmissionRepository) ReplaceText(ctx context.Context, id, text string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok || sub.Status != academic.SubmissionPending {
		return false, nil
	}
	sub.SubmissionText = text
	sub.SubmittedAt = at
	r.s.submissions[id] = sub
	return true, nil
}

func (r *SubmissionRepository) MarkChecked(ctx context.Context, id string, marks float64, checkedBy string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok || sub.Status != academic.SubmissionPending {
		return false, nil
	}
	checkedAt := at
	sub.Status = academic.SubmissionChecked
	sub.MarksObtained = &marks
	sub.CheckedBy = &checkedBy
	sub.CheckedAt = &checkedAt
	r.s.submissions[id] = sub
	return true, nil
}

func (r *SubmissionRepository) list(match func(models.Submission) bool) []models.Submission {
	subs := []models.Submission{}
	for _, sub := range r.s.submissions {
		if match(sub) {
			subs = append(subs, r.hydrate(sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.Before(subs[j].SubmittedAt) })
	return subs
}

func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(sub models.Submission) bool { return sub.AssignmentID == assignmentID }), nil
}

func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	subs := r.list(func(sub models.Submission) bool { return sub.StudentID == studentID })
	for i, j := 0, len(subs)-1; i < j; i, j = i+1, j-1 {
		subs[i], subs[j] = subs[j], subs[i]
	}
	return subs, nil
}

func (r *SubmissionRepository) CountPendingForTeacher(ctx context.Context, teacherID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, sub := range r.s.submissions {
		if sub.Status != academic.SubmissionPending {
			continue
		}
		a, ok := r.s.assignments[sub.AssignmentID]
		if !ok {
			continue
		}
		for _, m := range r.s.mappings {
			if m.ClassID == a.ClassID && m.SubjectID == a.SubjectID && m.TeacherID == teacherID {
				count++
				break
			}
		}
	}
	return count, nil
}
