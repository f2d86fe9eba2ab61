package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/models"
	"github.com/calderhq/rota-api/internal/service"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
	"github.com/calderhq/rota-api/pkg/response"
)

type shiftManager interface {
	Get(ctx context.Context, id string) (*models.Shift, error)
	Create(ctx context.Context, req service.CreateShiftRequest) (*models.Shift, error)
	Update(ctx context.Context, id string, req service.UpdateShiftRequest) (*models.Shift, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*models.Shift, error)
	Move(ctx context.Context, id string, req service.MoveShiftRequest) (*service.MoveShiftResult, error)
}

// ShiftHandler manages single-shift endpoints.
type ShiftHandler struct {
	service shiftManager
}

// NewShiftHandler constructs handler.
func NewShiftHandler(svc shiftManager) *ShiftHandler {
	return &ShiftHandler{service: svc}
}

// Get godoc
// @Summary Fetch a shift
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [get]
func (h *ShiftHandler) Get(c *gin.Context) {
	shift, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Create godoc
// @Summary Create a draft shift
// @Tags Shifts
// @Accept json
// @Produce json
// @Param payload body service.CreateShiftRequest true "Shift"
// @Success 201 {object} response.Envelope
// @Router /shifts [post]
func (h *ShiftHandler) Create(c *gin.Context) {
	var req service.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	shift, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// Update godoc
// @Summary Edit a shift (result is always a draft)
// @Tags Shifts
// @Accept json
// @Produce json
// @Param id path string true "Shift ID"
// @Param payload body service.UpdateShiftRequest true "Shift"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id} [put]
func (h *ShiftHandler) Update(c *gin.Context) {
	var req service.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	shift, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Delete godoc
// @Summary Delete a shift
// @Tags Shifts
// @Param id path string true "Shift ID"
// @Success 204
// @Router /shifts/{id} [delete]
func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duplicate godoc
// @Summary Duplicate a shift as a new draft
// @Tags Shifts
// @Produce json
// @Param id path string true "Shift ID"
// @Success 201 {object} response.Envelope
// @Router /shifts/{id}/duplicate [post]
func (h *ShiftHandler) Duplicate(c *gin.Context) {
	shift, err := h.service.Duplicate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// Move godoc
// @Summary Move a shift to another (employee, day) cell
// @Tags Shifts
// @Accept json
// @Produce json
// @Param id path string true "Shift ID"
// @Param payload body service.MoveShiftRequest true "Target cell"
// @Success 200 {object} response.Envelope
// @Router /shifts/{id}/move [post]
func (h *ShiftHandler) Move(c *gin.Context) {
	var req service.MoveShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
