package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/service"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
	"github.com/calderhq/rota-api/pkg/response"
)

// AvailabilityHandler manages availability window endpoints.
type AvailabilityHandler struct {
	service *service.AvailabilityService
	loc     *time.Location
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(svc *service.AvailabilityService, loc *time.Location) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc, loc: loc}
}

// List godoc
// @Summary List availability relevant to a window
// @Tags Availability
// @Produce json
// @Param from query string true "Window start (YYYY-MM-DD)"
// @Param to query string true "Window end, exclusive (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
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
// @Summary Declare an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.CreateAvailabilityRequest true "Availability"
// @Success 201 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req service.CreateAvailabilityRequest
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
// @Summary Remove an availability window
// @Tags Availability
// @Param id path string true "Availability ID"
// @Success 204
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
