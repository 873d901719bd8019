package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
	"github.com/noah-isme/sma-academic-api/pkg/export"
)

type marksSheetLoader interface {
	LoadMarks(ctx context.Context, actor Actor, testID string) (*MarkSheetView, error)
}

type attendanceSheetLoader interface {
	GetAttendance(ctx context.Context, actor Actor, query AttendanceQuery) (*AttendanceSheet, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders marks and attendance sheets as CSV, PDF or XLSX.
type ExportService struct {
	marks      marksSheetLoader
	attendance attendanceSheetLoader
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(marks marksSheetLoader, attendance attendanceSheetLoader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{marks: marks, attendance: attendance, logger: logger}
}

// MarksSheet renders the merged marks sheet of a test.
func (s *ExportService) MarksSheet(ctx context.Context, actor Actor, testID, format string) (*ExportFile, error) {
	renderer, err := rendererFor(format)
	if err != nil {
		return nil, err
	}
	view, err := s.marks.LoadMarks(ctx, actor, testID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("%s (%s, max %d)", view.Test.TestName, view.Test.TestDate.String(), view.Test.MaxMarks),
		Headers: []string{"Roll No", "Student", "Marks"},
		Rows:    make([]map[string]string, 0, len(view.Rows)),
	}
	for _, row := range view.Rows {
		marks := ""
		if row.Marks != nil {
			marks = strconv.FormatFloat(*row.Marks, 'f', -1, 64)
		}
		rollNo := ""
		if row.RollNo != nil {
			rollNo = *row.RollNo
		}
		data.Rows = append(data.Rows, map[string]string{
			"Roll No": rollNo,
			"Student": row.FullName,
			"Marks":   marks,
		})
	}
	name := fmt.Sprintf("marks_%s_%s", slug(view.Test.TestName), view.Test.TestDate.String())
	return s.render(renderer, data, name)
}

// AttendanceSheet renders one class-subject session.
func (s *ExportService) AttendanceSheet(ctx context.Context, actor Actor, query AttendanceQuery, format string) (*ExportFile, error) {
	renderer, err := rendererFor(format)
	if err != nil {
		return nil, err
	}
	sheet, err := s.attendance.GetAttendance(ctx, actor, query)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(sheet.Roster))
	rolls := make(map[string]string, len(sheet.Roster))
	for _, student := range sheet.Roster {
		names[student.StudentID] = student.FullName
		if student.RollNo != nil {
			rolls[student.StudentID] = *student.RollNo
		}
	}
	data := export.Dataset{
		Title: fmt.Sprintf("Attendance %s: %d present, %d absent",
			sheet.Date.String(), sheet.Summary.Present, sheet.Summary.Absent),
		Headers: []string{"Roll No", "Student", "Status"},
		Rows:    make([]map[string]string, 0, len(sheet.Sheet)),
	}
	for _, entry := range sheet.Sheet {
		data.Rows = append(data.Rows, map[string]string{
			"Roll No": rolls[entry.StudentID],
			"Student": names[entry.StudentID],
			"Status":  string(entry.Status),
		})
	}
	name := fmt.Sprintf("attendance_%s", sheet.Date.String())
	return s.render(renderer, data, name)
}

func (s *ExportService) render(renderer export.Renderer, data export.Dataset, name string) (*ExportFile, error) {
	payload, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Debug("export rendered", zap.String("name", name), zap.String("format", renderer.Extension()), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    name + "." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

func rendererFor(format string) (export.Renderer, error) {
	renderer, err := export.ForFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return nil, appErrors.Validation(err, "format must be one of csv, pdf, xlsx")
	}
	return renderer, nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
