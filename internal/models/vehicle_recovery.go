package models

import "time"

// VehicleRecovery documents the repossession track of a badly delinquent
// contract. Completing a recovery closes the contract as recuperado and shuts
// the collection case.
type VehicleRecovery struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	CaseID     uint               `gorm:"index;not null" json:"case_id"`
	Case       *CollectionCase    `gorm:"foreignKey:CaseID" json:"case,omitempty"`
	ContractID uint               `gorm:"index;not null" json:"contract_id"`
	Contract   *FinancingContract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	OpenedByID uint               `gorm:"index" json:"opened_by_id"`
	OpenedBy   *User              `gorm:"foreignKey:OpenedByID" json:"opened_by,omitempty"`

	RecoveryType string `gorm:"not null" json:"recovery_type"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`

	// Legal process, filled when the repossession goes through a court
	CourtOrder bool   `gorm:"default:false" json:"court_order"`
	CaseNumber string `json:"case_number"`
	Court      string `json:"court"`

	Status      string     `gorm:"default:en_proceso;index" json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for VehicleRecovery
func (VehicleRecovery) TableName() string {
	return "vehicle_recoveries"
}

// Recovery type constants
const (
	RecoveryTypeVoluntary  = "entrega_voluntaria"
	RecoveryTypeSeized     = "tomado"
	RecoveryTypeCourtOrder = "orden_secuestro"
)

// Recovery status constants
const (
	RecoveryStatusInProgress = "en_proceso"
	RecoveryStatusCompleted  = "completado"
	RecoveryStatusCanceled   = "cancelado"
)

// ValidRecoveryType reports whether t is a known repossession mechanism
func ValidRecoveryType(t string) bool {
	switch t {
	case RecoveryTypeVoluntary, RecoveryTypeSeized, RecoveryTypeCourtOrder:
		return true
	}
	return false
}
