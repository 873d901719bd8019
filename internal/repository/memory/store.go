// Package memory implements the repository contracts on an in-process store.
// It backs STORAGE_DRIVER=memory and the end-to-end service tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-academic-api/internal/models"
)

type attendanceKey struct {
	studentID string
	classID   string
	subjectID string
	date      string
}

type markKey struct {
	testID    string
	studentID string
}

// Store holds every table behind one lock. Writes that span several rows run
// under a single critical section so they land together or not at all.
type Store struct {
	mu sync.RWMutex

	users       map[string]models.User
	classes     map[string]models.Class
	subjects    map[string]models.Subject
	mappings    map[string]models.ClassSubjectAssignment
	memberships map[string]models.ClassMembership
	attendance  map[attendanceKey]models.AttendanceRecord
	tests       map[string]models.Test
	marks       map[markKey]models.Mark
	assignments map[string]models.Assignment
	submissions map[string]models.Submission

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.User),
		classes:     make(map[string]models.Class),
		subjects:    make(map[string]models.Subject),
		mappings:    make(map[string]models.ClassSubjectAssignment),
		memberships: make(map[string]models.ClassMembership),
		attendance:  make(map[attendanceKey]models.AttendanceRecord),
		tests:       make(map[string]models.Test),
		marks:       make(map[markKey]models.Mark),
		assignments: make(map[string]models.Assignment),
		submissions: make(map[string]models.Submission),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Classes() *ClassRepository              { return &ClassRepository{s: s} }
func (s *Store) Subjects() *SubjectRepository           { return &SubjectRepository{s: s} }
func (s *Store) ClassSubjects() *ClassSubjectRepository { return &ClassSubjectRepository{s: s} }
func (s *Store) Memberships() *MembershipRepository     { return &MembershipRepository{s: s} }
func (s *Store) Attendance() *AttendanceRepository      { return &AttendanceRepository{s: s} }
func (s *Store) Tests() *TestRepository                 { return &TestRepository{s: s} }
func (s *Store) Marks() *MarkRepository                 { return &MarkRepository{s: s} }
func (s *Store) Assignments() *AssignmentRepository     { return &AssignmentRepository{s: s} }
func (s *Store) Submissions() *SubmissionRepository     { return &SubmissionRepository{s: s} }

// activeClassOf returns the class id of the student's active membership. Callers hold the lock.
func (s *Store) activeClassOf(studentID string) (string, bool) {
	for _, m := range s.memberships {
		if m.StudentID == studentID && m.Active {
			return m.ClassID, true
		}
	}
	return "", false
}

func (s *Store) userName(id string) string {
	return s.users[id].FullName
}

func (s *Store) staffed(classID, subjectID string) bool {
	for _, m := range s.mappings {
		if m.ClassID == classID && m.SubjectID == subjectID {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// sortByField orders items by the named key, defaulting to creation time descending.
func sortByField[T any](items []T, sortOrder string, key func(T) string) {
	desc := !strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return key(items[i]) > key(items[j])
		}
		return key(items[i]) < key(items[j])
	})
}

func timeKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func strPtr(v string) *string { return &v }
