package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

// AssignmentGraphHandler exposes the class-subject-teacher mapping and class placements.
type AssignmentGraphHandler struct {
	graph *service.AssignmentGraphService
}

// NewAssignmentGraphHandler constructs the handler.
func NewAssignmentGraphHandler(graph *service.AssignmentGraphService) *AssignmentGraphHandler {
	return &AssignmentGraphHandler{graph: graph}
}

// AssignSubject godoc
// @Summary Assign a subject and teacher to a class
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignSubjectRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/class-subjects [post]
func (h *AssignmentGraphHandler) AssignSubject(c *gin.Context) {
	var req service.AssignSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.graph.AssignSubjectToClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ChangeTeacher godoc
// @Summary Change the teacher of a class-subject pair
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.ChangeTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /admin/class-subjects/{id}/teacher [patch]
func (h *AssignmentGraphHandler) ChangeTeacher(c *gin.Context) {
	var req service.ChangeTeacherRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.graph.UpdateAssignmentTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// RemoveSubject godoc
// @Summary Remove a class-subject pair
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204 {string} string ""
// @Router /admin/class-subjects/{id} [delete]
func (h *AssignmentGraphHandler) RemoveSubject(c *gin.Context) {
	if err := h.graph.RemoveAssignment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClassSubjects godoc
// @Summary List the subjects taught in a class
// @Tags Assignments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /admin/classes/{id}/subjects [get]
func (h *AssignmentGraphHandler) ClassSubjects(c *gin.Context) {
	subjects, err := h.graph.GetAssignedSubjects(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// PlaceStudent godoc
// @Summary Place a student in a class
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.AssignStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /admin/classes/{id}/students [post]
func (h *AssignmentGraphHandler) PlaceStudent(c *gin.Context) {
	var req service.AssignStudentRequest
	if !bindJSON(c, &req) {
		return
	}
	membership, err := h.graph.AssignStudentToClass(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, membership)
}

// RemoveStudent godoc
// @Summary Remove a student from a class
// @Tags Assignments
// @Param id path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 204 {string} string ""
// @Router /admin/classes/{id}/students/{studentId} [delete]
func (h *AssignmentGraphHandler) RemoveStudent(c *gin.Context) {
	if err := h.graph.RemoveStudentFromClass(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyAssignments godoc
// @Summary List the class-subject pairs of the signed-in teacher
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teacher/assignments [get]
func (h *AssignmentGraphHandler) MyAssignments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	pairs, err := h.graph.GetTeacherAssignments(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairs, nil)
}

// TeacherAssignments godoc
// @Summary List the class-subject pairs of a teacher
// @Tags Assignments
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /admin/teachers/{id}/assignments [get]
func (h *AssignmentGraphHandler) TeacherAssignments(c *gin.Context) {
	pairs, err := h.graph.GetTeacherAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pairs, nil)
}
