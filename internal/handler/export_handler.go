package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calderhq/rota-api/internal/service"
	"github.com/calderhq/rota-api/pkg/response"
)

// ExportHandler serves the printable weekly rota.
type ExportHandler struct {
	service *service.ExportService
	loc     *time.Location
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService, loc *time.Location) *ExportHandler {
	return &ExportHandler{service: svc, loc: loc}
}

// Week godoc
// @Summary Export the published week schedule
// @Tags Weeks
// @Produce text/csv
// @Produce application/pdf
// @Param start path string true "Week start (Monday, YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /weeks/{start}/export [get]
func (h *ExportHandler) Week(c *gin.Context) {
	weekStart, err := service.ParseWeekStart(c.Param("start"), h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", service.ExportFormatCSV)
	file, err := h.service.RenderWeek(c.Request.Context(), weekStart, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
