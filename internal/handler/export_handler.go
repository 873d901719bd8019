package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

type sheetExporter interface {
	MarksSheet(ctx context.Context, actor service.Actor, testID, format string) (*service.ExportFile, error)
	AttendanceSheet(ctx context.Context, actor service.Actor, query service.AttendanceQuery, format string) (*service.ExportFile, error)
}

// ExportHandler streams marks and attendance sheets as files.
type ExportHandler struct {
	exporter sheetExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(exporter sheetExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Marks godoc
// @Summary Download the marks sheet of a test
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Test ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /teacher/tests/{id}/marks/export [get]
func (h *ExportHandler) Marks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	file, err := h.exporter.MarksSheet(c.Request.Context(), actor, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// Attendance godoc
// @Summary Download the attendance sheet of a session
// @Tags Exports
// @Produce text/csv
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Router /teacher/attendance/export [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query service.AttendanceQuery
	if !bindQuery(c, &query) {
		return
	}
	file, err := h.exporter.AttendanceSheet(c.Request.Context(), actor, query, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
