package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

// CourseworkHandler exposes assignments, homework and submissions.
type CourseworkHandler struct {
	coursework *service.CourseworkService
}

// NewCourseworkHandler constructs the handler.
func NewCourseworkHandler(coursework *service.CourseworkService) *CourseworkHandler {
	return &CourseworkHandler{coursework: coursework}
}

// List godoc
// @Summary List work items
// @Tags Coursework
// @Produce json
// @Param class_id query string false "Class ID"
// @Param subject_id query string false "Subject ID"
// @Param type query string false "assignment or homework"
// @Param status query string false "active, due_soon or overdue"
// @Success 200 {object} response.Envelope
// @Router /teacher/work [get]
func (h *CourseworkHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query service.WorkItemQuery
	if !bindQuery(c, &query) {
		return
	}
	items, err := h.coursework.ListAssignments(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get a work item
// @Tags Coursework
// @Produce json
// @Param id path string true "Work item ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/work/{id} [get]
func (h *CourseworkHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	item, err := h.coursework.GetAssignment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create an assignment or homework
// @Tags Coursework
// @Accept json
// @Produce json
// @Param payload body service.WorkItemRequest true "Work item payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/work [post]
func (h *CourseworkHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.WorkItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.coursework.CreateAssignment(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a work item
// @Tags Coursework
// @Accept json
// @Produce json
// @Param id path string true "Work item ID"
// @Param payload body service.WorkItemRequest true "Work item payload"
// @Success 200 {object} response.Envelope
// @Router /teacher/work/{id} [put]
func (h *CourseworkHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.WorkItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.coursework.UpdateAssignment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete a work item and its submissions
// @Tags Coursework
// @Param id path string true "Work item ID"
// @Success 204 {string} string ""
// @Router /teacher/work/{id} [delete]
func (h *CourseworkHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.coursework.DeleteAssignment(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submissions godoc
// @Summary List submissions of a work item
// @Tags Coursework
// @Produce json
// @Param id path string true "Work item ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/work/{id}/submissions [get]
func (h *CourseworkHandler) Submissions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	subs, err := h.coursework.ListSubmissions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil)
}

// Check godoc
// @Summary Grade a submission
// @Tags Coursework
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.CheckSubmissionRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/submissions/{id}/check [post]
func (h *CourseworkHandler) Check(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CheckSubmissionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.coursework.CheckSubmission(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// MyWork godoc
// @Summary Work items of the signed-in student
// @Tags Coursework
// @Produce json
// @Param status query string false "active, due_soon or overdue"
// @Success 200 {object} response.Envelope
// @Router /student/work [get]
func (h *CourseworkHandler) MyWork(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	items, err := h.coursework.StudentAssignments(c.Request.Context(), actor.ID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Submit godoc
// @Summary Submit or replace an answer
// @Tags Coursework
// @Accept json
// @Produce json
// @Param id path string true "Work item ID"
// @Param payload body service.SubmitWorkRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/work/{id}/submission [put]
func (h *CourseworkHandler) Submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.SubmitWorkRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.coursework.SubmitWork(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
