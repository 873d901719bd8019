package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

// AttendanceHandler exposes attendance marking endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Get godoc
// @Summary Load the attendance sheet of a session
// @Tags Attendance
// @Produce json
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teacher/attendance [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query service.AttendanceQuery
	if !bindQuery(c, &query) {
		return
	}
	sheet, err := h.attendance.GetAttendance(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Mark godoc
// @Summary Save the attendance of a session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.attendance.MarkAttendance(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// BulkPreview godoc
// @Summary Set every line of a sheet to one status without saving
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkStatusRequest true "Sheet and status"
// @Success 200 {object} response.Envelope
// @Router /teacher/attendance/bulk-preview [post]
func (h *AttendanceHandler) BulkPreview(c *gin.Context) {
	var req service.BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	preview, err := h.attendance.BulkSetStatus(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview, nil)
}

// MyHistory godoc
// @Summary Attendance history of the signed-in student
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/attendance [get]
func (h *AttendanceHandler) MyHistory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	history, err := h.attendance.StudentHistory(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
