package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/middleware"
	"github.com/autocredit/cartera-api/internal/models"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
)

type PipelineHandler struct {
	pipelineService    *services.PipelineService
	originationService *services.OriginationService
}

func NewPipelineHandler(pipelineService *services.PipelineService, originationService *services.OriginationService) *PipelineHandler {
	return &PipelineHandler{pipelineService: pipelineService, originationService: originationService}
}

func (h *PipelineHandler) Index(c *gin.Context) {
	query := &repository.OpportunityQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")
	if stageID, err := strconv.ParseUint(c.Query("stage_id"), 10, 32); err == nil {
		query.StageID = uint(stageID)
	}
	// Analysts review deals across the whole pipeline, so they see everything
	query.OwnerID = middleware.GetUserID(c)
	query.IsAdmin = middleware.IsAdmin(c) || middleware.GetUserRole(c) == models.RoleAnalyst

	opps, total, err := h.pipelineService.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities": opps,
		"pagination":    pagination(query.Page, query.PerPage, total),
	})
}

func (h *PipelineHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	opp, err := h.pipelineService.Get(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

// Stages lists the pipeline stages in order
func (h *PipelineHandler) Stages(c *gin.Context) {
	stages, err := h.pipelineService.Stages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

type UpdateTermsRequest struct {
	VehicleID        *uint            `json:"vehicle_id"`
	VehiclePrice     *decimal.Decimal `json:"vehicle_price"`
	DownPayment      *decimal.Decimal `json:"down_payment"`
	MonthlyRate      *decimal.Decimal `json:"monthly_rate"`
	TermMonths       *int             `json:"term_months"`
	PayDay           *int             `json:"pay_day"`
	StartDate        *time.Time       `json:"start_date"`
	MonthlyInsurance *decimal.Decimal `json:"monthly_insurance"`
	MonthlyGPS       *decimal.Decimal `json:"monthly_gps"`
}

func (h *PipelineHandler) UpdateTerms(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req UpdateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}

	opp, err := h.originationService.UpdateTerms(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id),
		services.TermsInput{
			VehicleID:        req.VehicleID,
			VehiclePrice:     req.VehiclePrice,
			DownPayment:      req.DownPayment,
			MonthlyRate:      req.MonthlyRate,
			TermMonths:       req.TermMonths,
			PayDay:           req.PayDay,
			StartDate:        req.StartDate,
			MonthlyInsurance: req.MonthlyInsurance,
			MonthlyGPS:       req.MonthlyGPS,
		})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

type AdvanceRequest struct {
	TargetStageID uint   `json:"target_stage_id"`
	Comment       string `json:"comment"`
}

// Advance moves the opportunity forward, to the next stage by default or
// to an explicit target stage when the request names one.
func (h *PipelineHandler) Advance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req AdvanceRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.pipelineService.AdvanceStage(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), req.TargetStageID, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Materialize converts a won opportunity into a contract with its schedule.
func (h *PipelineHandler) Materialize(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	contract, err := h.originationService.MaterializeByID(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contract": contract})
}

func (h *PipelineHandler) ApproveAnalysis(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	opp, err := h.pipelineService.ApproveAnalysis(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

func (h *PipelineHandler) MarkLost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req AdvanceRequest
	_ = c.ShouldBindJSON(&req)

	opp, err := h.pipelineService.MarkLost(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

// History returns the stage transition trail
func (h *PipelineHandler) History(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	transitions, err := h.pipelineService.History(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transitions": transitions})
}

// PreviewSchedule returns the amortization table for the current terms
func (h *PipelineHandler) PreviewSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("opportunity_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	rows, err := h.originationService.PreviewSchedule(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": rows})
}
