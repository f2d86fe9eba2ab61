package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/service"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
	"github.com/calderhq/rota-api/pkg/response"
)

// TimeOffHandler manages absence window endpoints.
type TimeOffHandler struct {
	service *service.TimeOffService
	loc     *time.Location
}

// NewTimeOffHandler constructs handler.
func NewTimeOffHandler(svc *service.TimeOffService, loc *time.Location) *TimeOffHandler {
	return &TimeOffHandler{service: svc, loc: loc}
}

// List godoc
// @Summary List time off in a window
// @Tags TimeOff
// @Produce json
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end, exclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /time-offs [get]
func (h *TimeOffHandler) List(c *gin.Context) {
	from, to, err := parseWindow(c, h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.service.ListWindow(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Create godoc
// @Summary Record an approved absence
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param payload body service.CreateTimeOffRequest true "Time off"
// @Success 201 {object} response.Envelope
// @Router /time-offs [post]
func (h *TimeOffHandler) Create(c *gin.Context) {
	var req service.CreateTimeOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Delete godoc
// @Summary Remove a time-off entry
// @Tags TimeOff
// @Param id path string true "Time off ID"
// @Success 204
// @Router /time-offs/{id} [delete]
func (h *TimeOffHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseWindow(c *gin.Context, loc *time.Location) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", c.Query("from"), loc)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid or missing from date")
	}
	to, err := time.ParseInLocation("2006-01-02", c.Query("to"), loc)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid or missing to date")
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}
	return from.UTC(), to.UTC(), nil
}
