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

type ContractHandler struct {
	paymentService     *services.PaymentService
	recoveryService    *services.RecoveryService
	delinquencyService *services.DelinquencyService
}

func NewContractHandler(paymentService *services.PaymentService, recoveryService *services.RecoveryService, delinquencyService *services.DelinquencyService) *ContractHandler {
	return &ContractHandler{
		paymentService:     paymentService,
		recoveryService:    recoveryService,
		delinquencyService: delinquencyService,
	}
}

func (h *ContractHandler) Index(c *gin.Context) {
	query := &repository.ContractQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Status = c.Query("status")
	if clientID, err := strconv.ParseUint(c.Query("client_id"), 10, 32); err == nil {
		query.ClientID = uint(clientID)
	}

	contracts, total, err := h.paymentService.ListContracts(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contracts":  contracts,
		"pagination": pagination(query.Page, query.PerPage, total),
	})
}

func (h *ContractHandler) Show(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	contract, err := h.paymentService.GetContract(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// Schedule returns the amortization table, disbursement row included
func (h *ContractHandler) Schedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	installments, err := h.paymentService.Schedule(c.Request.Context(), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"installments": installments})
}

type RegisterPaymentRequest struct {
	Sequence int             `json:"sequence" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

func (h *ContractHandler) RegisterPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Número de cuota y monto son requeridos"})
		return
	}

	installment, err := h.paymentService.RegisterPayment(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id), req.Sequence, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"installment": installment})
}

// ChargeOff writes a contract off as uncollectible. Admin only, enforced
// both here by routing and inside the service.
func (h *ContractHandler) ChargeOff(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	contract, err := h.recoveryService.ChargeOff(c.Request.Context(),
		middleware.GetUserID(c), middleware.GetUserRole(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contract": contract})
}

// Reevaluate refreshes the delinquency state of one contract on demand,
// outside the scheduled sweep.
func (h *ContractHandler) Reevaluate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("contract_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	kase, err := h.delinquencyService.Reevaluate(c.Request.Context(), uint(id), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	if kase == nil {
		c.JSON(http.StatusOK, gin.H{"case": nil, "message": "contrato al día"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": kase})
}
