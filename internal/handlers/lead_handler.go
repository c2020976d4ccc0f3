package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autocredit/cartera-api/internal/middleware"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
)

type LeadHandler struct {
	leadService        *services.LeadService
	originationService *services.OriginationService
}

func NewLeadHandler(leadService *services.LeadService, originationService *services.OriginationService) *LeadHandler {
	return &LeadHandler{leadService: leadService, originationService: originationService}
}

func (h *LeadHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	if owner := c.Query("owner_id"); owner != "" {
		query.Filters["owner_id"] = owner
	}
	if converted := c.Query("converted"); converted != "" {
		query.Filters["converted"] = converted
	}

	leads, total, err := h.leadService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":      leads,
		"pagination": pagination(query.Page, query.PerPage, total),
	})
}

type CreateLeadRequest struct {
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Source      string `json:"source"`
	Notes       string `json:"notes"`
	CompanyID   *uint  `json:"company_id"`
	CompanyName string `json:"company_name"`
}

func (h *LeadHandler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nombre completo es requerido"})
		return
	}

	lead, err := h.leadService.Create(c.Request.Context(), middleware.GetUserID(c), services.LeadInput{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Source:      req.Source,
		Notes:       req.Notes,
		CompanyID:   req.CompanyID,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lead": lead})
}

func (h *LeadHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("lead_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lead": lead})
}

// Convert opens an opportunity for the lead
func (h *LeadHandler) Convert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("lead_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	opp, err := h.originationService.ConvertLead(c.Request.Context(), middleware.GetUserID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"opportunity": opp})
}
