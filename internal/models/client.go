package models

import "time"

// Client is the formal debtor record created when an opportunity closes.
// Exactly one client exists per materialized opportunity.
type Client struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	OpportunityID uint         `gorm:"uniqueIndex;not null" json:"opportunity_id"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	FullName      string       `gorm:"not null" json:"full_name"`
	Identity      string       `gorm:"index" json:"identity"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName specifies the table name for Client
func (Client) TableName() string {
	return "clients"
}
