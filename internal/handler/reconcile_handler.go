package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/pkg/response"
)

type reconcileRunner interface {
	RunPass(ctx context.Context) (int, error)
}

// ReconcileHandler exposes a manual reconciliation trigger. The background
// loop covers normal operation; this endpoint exists for operators.
type ReconcileHandler struct {
	reconciler reconcileRunner
}

// NewReconcileHandler constructs handler.
func NewReconcileHandler(reconciler reconcileRunner) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// Run godoc
// @Summary Run one reconciliation pass now
// @Tags Reconcile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reconcile [post]
func (h *ReconcileHandler) Run(c *gin.Context) {
	kicked, err := h.reconciler.RunPass(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"kicked": kicked}, nil)
}
