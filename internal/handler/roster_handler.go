package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/models"
	"github.com/calderhq/rota-api/internal/service"
	"github.com/calderhq/rota-api/pkg/response"
)

type rosterViewer interface {
	WeekView(ctx context.Context, weekStart time.Time) (*models.WeekView, error)
}

// RosterHandler serves the week-scoped read model.
type RosterHandler struct {
	roster rosterViewer
	loc    *time.Location
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster rosterViewer, loc *time.Location) *RosterHandler {
	return &RosterHandler{roster: roster, loc: loc}
}

// Week godoc
// @Summary Week schedule read model
// @Tags Weeks
// @Produce json
// @Param start path string true "Week start (Monday, YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{start} [get]
func (h *RosterHandler) Week(c *gin.Context) {
	weekStart, err := service.ParseWeekStart(c.Param("start"), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.roster.WeekView(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
