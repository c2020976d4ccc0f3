package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User        UserRepository
	Lead        LeadRepository
	Stage       StageRepository
	Vehicle     VehicleRepository
	Opportunity OpportunityRepository
	Client      ClientRepository
	Contract    ContractRepository
	Installment InstallmentRepository
	Case        CollectionCaseRepository
	Contact     ContactLogRepository
	Arrangement PaymentArrangementRepository
	Recovery    VehicleRecoveryRepository
	Audit       AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Lead:        NewLeadRepository(db),
		Stage:       NewStageRepository(db),
		Vehicle:     NewVehicleRepository(db),
		Opportunity: NewOpportunityRepository(db),
		Client:      NewClientRepository(db),
		Contract:    NewContractRepository(db),
		Installment: NewInstallmentRepository(db),
		Case:        NewCollectionCaseRepository(db),
		Contact:     NewContactLogRepository(db),
		Arrangement: NewPaymentArrangementRepository(db),
		Recovery:    NewVehicleRecoveryRepository(db),
		Audit:       NewAuditRepository(db),
	}
}
