package models

import "time"

// Company groups leads that belong to the same business account. Individual
// buyers get a single-person company created on the fly.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	TaxID     string    `gorm:"index" json:"tax_id"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}

// Lead is an incoming prospect captured before any credit evaluation starts.
// Converting a lead opens an Opportunity in the first pipeline stage.
type Lead struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CompanyID   *uint      `gorm:"index" json:"company_id"`
	Company     *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	FullName    string     `gorm:"not null" json:"full_name"`
	Email       string     `gorm:"index" json:"email"`
	Phone       string     `json:"phone"`
	Source      string     `json:"source"`
	Notes       string     `json:"notes"`
	OwnerID     *uint      `gorm:"index" json:"owner_id"`
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	ConvertedAt *time.Time `json:"converted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// IsConverted returns true once the lead produced an opportunity
func (l *Lead) IsConverted() bool {
	return l.ConvertedAt != nil
}
