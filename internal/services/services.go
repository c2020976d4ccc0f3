package services

import (
	"gorm.io/gorm"

	"github.com/autocredit/cartera-api/internal/config"
	"github.com/autocredit/cartera-api/internal/jobs"
	"github.com/autocredit/cartera-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	User        *UserService
	Lead        *LeadService
	Vehicle     *VehicleService
	Origination *OriginationService
	Pipeline    *PipelineService
	Payment     *PaymentService
	Delinquency *DelinquencyService
	Case        *CaseService
	Arrangement *ArrangementService
	Recovery    *RecoveryService
	Funnel      *FunnelService
	Export      *ExportService
	Audit       *AuditService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	auditSvc := NewAuditService(repos.Audit)

	originationSvc := NewOriginationService(db, repos, auditSvc)
	delinquencySvc := NewDelinquencyService(db, repos, auditSvc)
	funnelSvc := NewFunnelService(repos)

	return &Services{
		User:        NewUserService(repos, auditSvc),
		Lead:        NewLeadService(repos, auditSvc),
		Vehicle:     NewVehicleService(repos, auditSvc),
		Origination: originationSvc,
		Pipeline:    NewPipelineService(db, repos, originationSvc, auditSvc, nil),
		Payment:     NewPaymentService(db, repos, delinquencySvc, auditSvc, worker),
		Delinquency: delinquencySvc,
		Case:        NewCaseService(repos, auditSvc),
		Arrangement: NewArrangementService(repos, auditSvc),
		Recovery:    NewRecoveryService(db, repos, auditSvc),
		Funnel:      funnelSvc,
		Export:      NewExportService(funnelSvc, repos),
		Audit:       auditSvc,
	}
}
