package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autocredit/cartera-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	User        *UserHandler
	Lead        *LeadHandler
	Vehicle     *VehicleHandler
	Pipeline    *PipelineHandler
	Contract    *ContractHandler
	Collections *CollectionsHandler
	Funnel      *FunnelHandler
	Audit       *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(),
		User:        NewUserHandler(svcs.User),
		Lead:        NewLeadHandler(svcs.Lead, svcs.Origination),
		Vehicle:     NewVehicleHandler(svcs.Vehicle),
		Pipeline:    NewPipelineHandler(svcs.Pipeline, svcs.Origination),
		Contract:    NewContractHandler(svcs.Payment, svcs.Recovery, svcs.Delinquency),
		Collections: NewCollectionsHandler(svcs.Case, svcs.Arrangement, svcs.Recovery, svcs.Delinquency),
		Funnel:      NewFunnelHandler(svcs.Funnel, svcs.Export),
		Audit:       NewAuditHandler(svcs.Audit),
	}
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "cartera-api",
		"version": "1.0.0",
	})
}
