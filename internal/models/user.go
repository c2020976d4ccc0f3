package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an operator of the system: sales agents, credit analysts,
// collections agents and administrators. Authentication itself lives in the
// identity collaborator; this table only carries what the business logic
// needs (role and assignment targets).
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName    string     `json:"full_name"`
	Phone       string     `json:"phone"`
	Role        string     `gorm:"default:sales;index" json:"role"`
	Status      string     `gorm:"default:active" json:"status"`
	DiscardedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin       = "admin"
	RoleSales       = "sales"
	RoleAnalyst     = "analyst"
	RoleCollections = "cobros"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleSales
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanCollect returns true if the user may own collection cases
func (u *User) CanCollect() bool {
	return u.Role == RoleCollections || u.Role == RoleAdmin
}
