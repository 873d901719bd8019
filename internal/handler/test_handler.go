package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/service"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

// TestHandler exposes test scheduling and marks entry.
type TestHandler struct {
	tests *service.TestService
}

// NewTestHandler constructs the handler.
func NewTestHandler(tests *service.TestService) *TestHandler {
	return &TestHandler{tests: tests}
}

// List godoc
// @Summary List tests of a class-subject pair
// @Tags Tests
// @Produce json
// @Param class_id query string false "Class ID"
// @Param subject_id query string false "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/tests [get]
func (h *TestHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.TestFilter{
		ClassID:   strings.TrimSpace(c.Query("class_id")),
		SubjectID: strings.TrimSpace(c.Query("subject_id")),
	}
	tests, err := h.tests.ListTests(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, nil)
}

// Get godoc
// @Summary Get a test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/tests/{id} [get]
func (h *TestHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	test, err := h.tests.GetTest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test, nil)
}

// Create godoc
// @Summary Schedule a test
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body service.CreateTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Router /teacher/tests [post]
func (h *TestHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateTestRequest
	if !bindJSON(c, &req) {
		return
	}
	test, err := h.tests.CreateTest(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// Update godoc
// @Summary Update a test
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body service.UpdateTestRequest true "Test payload"
// @Success 200 {object} response.Envelope
// @Router /teacher/tests/{id} [put]
func (h *TestHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateTestRequest
	if !bindJSON(c, &req) {
		return
	}
	test, err := h.tests.UpdateTest(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test, nil)
}

// Delete godoc
// @Summary Delete a test and its marks
// @Tags Tests
// @Param id path string true "Test ID"
// @Param confirm query bool true "Must be true"
// @Success 204 {string} string ""
// @Failure 412 {object} response.Envelope
// @Router /teacher/tests/{id} [delete]
func (h *TestHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	confirm := false
	if raw := c.Query("confirm"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "confirm must be a boolean"))
			return
		}
		confirm = parsed
	}
	if err := h.tests.DeleteTest(c.Request.Context(), actor, c.Param("id"), confirm); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Marks godoc
// @Summary Load the marks sheet of a test
// @Tags Tests
// @Produce json
// @Param id path string true "Test ID"
// @Success 200 {object} response.Envelope
// @Router /teacher/tests/{id}/marks [get]
func (h *TestHandler) Marks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sheet, err := h.tests.LoadMarks(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// SaveMarks godoc
// @Summary Save a batch of marks
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body service.SaveMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/tests/{id}/marks [put]
func (h *TestHandler) SaveMarks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.SaveMarksRequest
	if !bindJSON(c, &req) {
		return
	}
	sheet, err := h.tests.SaveMarks(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// MyMarks godoc
// @Summary Recent marks of the signed-in student
// @Tags Tests
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /student/marks [get]
func (h *TestHandler) MyMarks(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	marks, err := h.tests.StudentMarks(c.Request.Context(), actor.ID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}
