package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/response"
)

type rosterViewer interface {
	View(ctx context.Context, actor service.Actor, classID string, query service.RosterViewQuery) (*service.RosterView, error)
}

// RosterHandler serves the student screens of a class.
type RosterHandler struct {
	roster rosterViewer
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(roster rosterViewer) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// View godoc
// @Summary Class roster in list, detail or performance view
// @Tags Roster
// @Produce json
// @Param id path string true "Class ID"
// @Param view query string false "list, detail or performance"
// @Param student_id query string false "Student ID, required for detail and performance"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/classes/{id}/students [get]
func (h *RosterHandler) View(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query service.RosterViewQuery
	if !bindQuery(c, &query) {
		return
	}
	view, err := h.roster.View(c.Request.Context(), actor, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
