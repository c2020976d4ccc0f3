package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if entity := c.Query("entity"); entity != "" {
		query.Filters["entity"] = entity
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		query.Filters["entity_id"] = entityID
	}
	if userID := c.Query("user_id"); userID != "" {
		query.Filters["user_id"] = userID
	}

	logs, total, err := h.auditService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"pagination": pagination(query.Page, query.PerPage, total),
	})
}
