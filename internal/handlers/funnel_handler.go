package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocredit/cartera-api/internal/services"
)

type FunnelHandler struct {
	funnelService *services.FunnelService
	exportService *services.ExportService
}

func NewFunnelHandler(funnelService *services.FunnelService, exportService *services.ExportService) *FunnelHandler {
	return &FunnelHandler{funnelService: funnelService, exportService: exportService}
}

// Show returns the portfolio funnel, one row per segment in display order
func (h *FunnelHandler) Show(c *gin.Context) {
	snapshot, err := h.funnelService.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taken_at": snapshot.TakenAt,
		"funnel":   snapshot.Rows(),
	})
}

func (h *FunnelHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.exportService.FunnelCSV(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *FunnelHandler) ExportXLSX(c *gin.Context) {
	data, filename, err := h.exportService.FunnelXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ExportCases downloads the open collection cases as a spreadsheet
func (h *FunnelHandler) ExportCases(c *gin.Context) {
	data, filename, err := h.exportService.CasesXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
