package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/autocredit/cartera-api/internal/middleware"
	"github.com/autocredit/cartera-api/internal/repository"
	"github.com/autocredit/cartera-api/internal/services"
)

type CollectionsHandler struct {
	caseService        *services.CaseService
	arrangementService *services.ArrangementService
	recoveryService    *services.RecoveryService
	delinquencyService *services.DelinquencyService
}

func NewCollectionsHandler(caseService *services.CaseService, arrangementService *services.ArrangementService, recoveryService *services.RecoveryService, delinquencyService *services.DelinquencyService) *CollectionsHandler {
	return &CollectionsHandler{
		caseService:        caseService,
		arrangementService: arrangementService,
		recoveryService:    recoveryService,
		delinquencyService: delinquencyService,
	}
}

func (h *CollectionsHandler) Index(c *gin.Context) {
	query := &repository.CaseQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Bucket = c.Query("bucket")
	query.Status = c.Query("status")
	if collectorID, err := strconv.ParseUint(c.Query("collector_id"), 10, 32); err == nil {
		query.CollectorID = uint(collectorID)
	}

	cases, total, err := h.caseService.List(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cases":      cases,
		"pagination": pagination(query.Page, query.PerPage, total),
	})
}

func (h *CollectionsHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	kase, err := h.caseService.Get(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": kase})
}

type RecordContactRequest struct {
	Method      string     `json:"method" binding:"required"`
	Outcome     string     `json:"outcome" binding:"required"`
	Notes       string     `json:"notes"`
	Agreements  string     `json:"agreements"`
	ContactedAt *time.Time `json:"contacted_at"`
	FollowUpAt  *time.Time `json:"follow_up_at"`
}

func (h *CollectionsHandler) RecordContact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req RecordContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medio y resultado de contacto son requeridos"})
		return
	}

	input := services.ContactInput{
		Method:     req.Method,
		Outcome:    req.Outcome,
		Notes:      req.Notes,
		Agreements: req.Agreements,
		FollowUpAt: req.FollowUpAt,
	}
	if req.ContactedAt != nil {
		input.ContactedAt = *req.ContactedAt
	}

	contact, err := h.caseService.RecordContact(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

func (h *CollectionsHandler) Contacts(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	contacts, err := h.caseService.Contacts(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

type ReassignRequest struct {
	CollectorID uint `json:"collector_id" binding:"required"`
}

func (h *CollectionsHandler) Reassign(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Gestor es requerido"})
		return
	}

	kase, err := h.caseService.Reassign(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), req.CollectorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": kase})
}

type CreateArrangementRequest struct {
	AgreedAmount      decimal.Decimal `json:"agreed_amount" binding:"required"`
	InstallmentCount  int             `json:"installment_count" binding:"required"`
	InstallmentAmount decimal.Decimal `json:"installment_amount" binding:"required"`
	StartDate         time.Time       `json:"start_date" binding:"required"`
	SpecialConditions string          `json:"special_conditions"`
}

func (h *CollectionsHandler) CreateArrangement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req CreateArrangementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Monto, cuotas y fecha de inicio son requeridos"})
		return
	}

	arrangement, err := h.arrangementService.Create(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), services.ArrangementInput{
			AgreedAmount:      req.AgreedAmount,
			InstallmentCount:  req.InstallmentCount,
			InstallmentAmount: req.InstallmentAmount,
			StartDate:         req.StartDate,
			SpecialConditions: req.SpecialConditions,
		})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"arrangement": arrangement})
}

func (h *CollectionsHandler) Arrangements(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	arrangements, err := h.arrangementService.ListByCase(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"arrangements": arrangements})
}

func (h *CollectionsHandler) RecordArrangementPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("arrangement_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	arrangement, err := h.arrangementService.RecordInstallmentPaid(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"arrangement": arrangement})
}

func (h *CollectionsHandler) CancelArrangement(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("arrangement_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	arrangement, err := h.arrangementService.Cancel(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"arrangement": arrangement})
}

type OpenRecoveryRequest struct {
	RecoveryType string `json:"recovery_type" binding:"required"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
	CaseNumber   string `json:"case_number"`
	Court        string `json:"court"`
}

func (h *CollectionsHandler) OpenRecovery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("case_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req OpenRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tipo de recuperación es requerido"})
		return
	}

	recovery, err := h.recoveryService.Open(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), services.RecoveryInput{
			RecoveryType: req.RecoveryType,
			Location:     req.Location,
			Notes:        req.Notes,
			CaseNumber:   req.CaseNumber,
			Court:        req.Court,
		})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recovery": recovery})
}

func (h *CollectionsHandler) CompleteRecovery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("recovery_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	recovery, err := h.recoveryService.Complete(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recovery": recovery})
}

func (h *CollectionsHandler) CancelRecovery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("recovery_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	recovery, err := h.recoveryService.Cancel(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recovery": recovery})
}

// Dashboard returns the work counters of a collector. Without an explicit
// collector_id the caller sees their own numbers.
func (h *CollectionsHandler) Dashboard(c *gin.Context) {
	collectorID := middleware.GetUserID(c)
	if raw := c.Query("collector_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
			return
		}
		collectorID = uint(parsed)
	}

	dashboard, err := h.caseService.CollectorDashboard(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), collectorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// Sweep reruns the delinquency sweep over the whole active portfolio
func (h *CollectionsHandler) Sweep(c *gin.Context) {
	if err := h.delinquencyService.SweepAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "barrido de mora ejecutado"})
}
