package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestExportMarksSheetCSV(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	other := sc.addStudent(t, "s2@school.test", "S2", "02")
	sc.enroll(t, other.ID)
	test := sc.createTest(t, "Unit 1", 50)
	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(42.5)},
	}})
	require.NoError(t, err)

	file, err := sc.svc.Export.MarksSheet(ctx, sc.teacherActor(), test.ID, "csv")
	require.NoError(t, err)
	assert.Equal(t, "marks_unit-1_2024-03-05.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "Roll No,Student,Marks\n01,S1,42.5\n02,S2,\n", string(file.Data))
}

func TestExportAttendanceSheetFormats(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	_, err := sc.svc.Attendance.MarkAttendance(ctx, sc.teacherActor(), markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "absent"}))
	require.NoError(t, err)
	query := AttendanceQuery{ClassID: sc.class.ID, SubjectID: sc.subject.ID, Date: "2024-03-01"}

	csvFile, err := sc.svc.Export.AttendanceSheet(ctx, sc.teacherActor(), query, "")
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-03-01.csv", csvFile.Filename)
	assert.Equal(t, "Roll No,Student,Status\n01,S1,absent\n", string(csvFile.Data))

	pdfFile, err := sc.svc.Export.AttendanceSheet(ctx, sc.teacherActor(), query, "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfFile.ContentType)
	assert.True(t, bytes.HasPrefix(pdfFile.Data, []byte("%PDF")))

	xlsxFile, err := sc.svc.Export.AttendanceSheet(ctx, sc.teacherActor(), query, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "attendance_2024-03-01.xlsx", xlsxFile.Filename)
	assert.True(t, bytes.HasPrefix(xlsxFile.Data, []byte("PK")))
}

func TestExportRejectsUnknownFormatAndForeignTeacher(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	test := sc.createTest(t, "Unit 1", 50)

	_, err := sc.svc.Export.MarksSheet(ctx, sc.teacherActor(), test.ID, "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	outsider := Actor{ID: sc.addTeacher(t, "t2@school.test", "T2").ID, Role: models.RoleTeacher}
	_, err = sc.svc.Export.MarksSheet(ctx, outsider, test.ID, "csv")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
