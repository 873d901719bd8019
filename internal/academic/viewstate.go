package academic

import (
	"errors"
	"fmt"
)

// ViewKind names the screens of the student roster.
type ViewKind string

const (
	ViewList        ViewKind = "list"
	ViewDetail      ViewKind = "detail"
	ViewPerformance ViewKind = "performance"
)

// ErrInvalidTransition is returned when an action does not apply to the current view.
var ErrInvalidTransition = errors.New("invalid view transition")

// ViewState is the roster view. Detail and performance views always reference a student.
type ViewState struct {
	kind      ViewKind
	studentID string
}

// ListView is the initial state.
func ListView() ViewState {
	return ViewState{kind: ViewList}
}

func (v ViewState) Kind() ViewKind {
	if v.kind == "" {
		return ViewList
	}
	return v.kind
}

func (v ViewState) StudentID() string { return v.studentID }

// Open selects a student from the list.
func (v ViewState) Open(studentID string) (ViewState, error) {
	if v.Kind() != ViewList {
		return v, fmt.Errorf("%w: open from %s", ErrInvalidTransition, v.Kind())
	}
	if studentID == "" {
		return v, fmt.Errorf("%w: student id is required", ErrInvalidTransition)
	}
	return ViewState{kind: ViewDetail, studentID: studentID}, nil
}

// ShowPerformance moves from a student's detail to their performance.
func (v ViewState) ShowPerformance() (ViewState, error) {
	if v.Kind() != ViewDetail {
		return v, fmt.Errorf("%w: performance from %s", ErrInvalidTransition, v.Kind())
	}
	return ViewState{kind: ViewPerformance, studentID: v.studentID}, nil
}

// Back returns to the previous view.
func (v ViewState) Back() (ViewState, error) {
	switch v.Kind() {
	case ViewPerformance:
		return ViewState{kind: ViewDetail, studentID: v.studentID}, nil
	case ViewDetail:
		return ListView(), nil
	default:
		return v, fmt.Errorf("%w: back from list", ErrInvalidTransition)
	}
}

// ResolveView reaches the requested view from the list through the allowed actions.
func ResolveView(kind ViewKind, studentID string) (ViewState, error) {
	state := ListView()
	switch kind {
	case "", ViewList:
		return state, nil
	case ViewDetail:
		return state.Open(studentID)
	case ViewPerformance:
		detail, err := state.Open(studentID)
		if err != nil {
			return state, err
		}
		return detail.ShowPerformance()
	default:
		return state, fmt.Errorf("%w: unknown view %q", ErrInvalidTransition, kind)
	}
}
