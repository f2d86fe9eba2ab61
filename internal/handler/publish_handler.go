package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/service"
	"github.com/calderhq/rota-api/pkg/response"
)

type weekPublisher interface {
	PublishWeek(ctx context.Context, weekStart time.Time) (*service.PublishResult, error)
	ClearDrafts(ctx context.Context, weekStart time.Time) (*service.ClearDraftsResult, error)
}

type weekCopier interface {
	RepeatLastWeek(ctx context.Context, weekStart time.Time) (*service.RepeatWeekResult, error)
}

// PublishHandler manages week-level bulk operations.
type PublishHandler struct {
	publisher weekPublisher
	copier    weekCopier
	loc       *time.Location
}

// NewPublishHandler constructs handler.
func NewPublishHandler(publisher weekPublisher, copier weekCopier, loc *time.Location) *PublishHandler {
	return &PublishHandler{publisher: publisher, copier: copier, loc: loc}
}

// Publish godoc
// @Summary Publish the week's draft shifts (all-or-nothing)
// @Tags Weeks
// @Produce json
// @Param start path string true "Week start (Monday, YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /weeks/{start}/publish [post]
func (h *PublishHandler) Publish(c *gin.Context) {
	weekStart, err := service.ParseWeekStart(c.Param("start"), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.publisher.PublishWeek(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Conflicts are a structured result, not an error envelope.
	status := http.StatusOK
	if !result.Success {
		status = http.StatusConflict
	}
	response.JSON(c, status, result, nil)
}

// ClearDrafts godoc
// @Summary Delete every draft shift in the week
// @Tags Weeks
// @Produce json
// @Param start path string true "Week start (Monday, YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{start}/drafts [delete]
func (h *PublishHandler) ClearDrafts(c *gin.Context) {
	weekStart, err := service.ParseWeekStart(c.Param("start"), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.publisher.ClearDrafts(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RepeatLastWeek godoc
// @Summary Copy last week's published shifts into this week as drafts
// @Tags Weeks
// @Produce json
// @Param start path string true "Week start (Monday, YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{start}/repeat-last-week [post]
func (h *PublishHandler) RepeatLastWeek(c *gin.Context) {
	weekStart, err := service.ParseWeekStart(c.Param("start"), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.copier.RepeatLastWeek(c.Request.Context(), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
