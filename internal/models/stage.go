package models

import "time"

// SalesStage is one step of the origination pipeline. Stages are ordered by
// Order and carry a closure percentage used by forecast reports. Exactly one
// stage is flagged IsAnalysis, the gate where a credit analyst must approve
// before the deal can keep moving, and the terminal stage carries a closure
// percentage of 100.
type SalesStage struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"not null" json:"name"`
	Order             int       `gorm:"column:stage_order;uniqueIndex;not null" json:"order"`
	ClosurePercentage int       `gorm:"not null" json:"closure_percentage"`
	IsAnalysis        bool      `gorm:"default:false" json:"is_analysis"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for SalesStage
func (SalesStage) TableName() string {
	return "sales_stages"
}

// IsTerminal reports whether the stage closes the pipeline
func (s *SalesStage) IsTerminal() bool {
	return s.ClosurePercentage >= 100
}

// StageTransition records every movement of an opportunity between stages,
// including administrative overrides that skip the analysis gate.
type StageTransition struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	OpportunityID uint        `gorm:"index;not null" json:"opportunity_id"`
	FromStageID   *uint       `json:"from_stage_id"`
	FromStage     *SalesStage `gorm:"foreignKey:FromStageID" json:"from_stage,omitempty"`
	ToStageID     uint        `gorm:"not null" json:"to_stage_id"`
	ToStage       *SalesStage `gorm:"foreignKey:ToStageID" json:"to_stage,omitempty"`
	MovedByID     uint        `gorm:"index" json:"moved_by_id"`
	MovedBy       *User       `gorm:"foreignKey:MovedByID" json:"moved_by,omitempty"`
	IsOverride    bool        `gorm:"default:false" json:"is_override"`
	Comment       string      `json:"comment"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName specifies the table name for StageTransition
func (StageTransition) TableName() string {
	return "stage_transitions"
}
