package models

import "time"

// ContactLog records a single collection touch on a case: who reached out,
// through which channel, and how the debtor responded.
type ContactLog struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CaseID      uint            `gorm:"index;not null" json:"case_id"`
	Case        *CollectionCase `gorm:"foreignKey:CaseID" json:"case,omitempty"`
	CollectorID uint            `gorm:"index;not null" json:"collector_id"`
	Collector   *User           `gorm:"foreignKey:CollectorID" json:"collector,omitempty"`
	Method      string          `gorm:"not null" json:"method"`
	Outcome     string          `gorm:"not null" json:"outcome"`
	Notes       string          `json:"notes"`
	Agreements  string          `json:"agreements"`
	ContactedAt time.Time       `gorm:"index" json:"contacted_at"`

	FollowUpRequired bool       `gorm:"default:false" json:"follow_up_required"`
	FollowUpAt       *time.Time `json:"follow_up_at"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for ContactLog
func (ContactLog) TableName() string {
	return "contact_logs"
}

// Contact method constants
const (
	ContactMethodCall      = "llamada"
	ContactMethodWhatsApp  = "whatsapp"
	ContactMethodEmail     = "email"
	ContactMethodHomeVisit = "visita_domicilio"
	ContactMethodNotarial  = "carta_notarial"
)

// Contact outcome constants
const (
	ContactOutcomeReached        = "contactado"
	ContactOutcomeNoAnswer       = "no_contesta"
	ContactOutcomeWrongNumber    = "numero_equivocado"
	ContactOutcomePaymentPromise = "promesa_pago"
	ContactOutcomePartialDeal    = "acuerdo_parcial"
	ContactOutcomeRefusesToPay   = "rechaza_pagar"
)

// ValidContactMethod reports whether m is a known contact channel
func ValidContactMethod(m string) bool {
	switch m {
	case ContactMethodCall, ContactMethodWhatsApp, ContactMethodEmail,
		ContactMethodHomeVisit, ContactMethodNotarial:
		return true
	}
	return false
}

// ValidContactOutcome reports whether o is a known contact outcome
func ValidContactOutcome(o string) bool {
	switch o {
	case ContactOutcomeReached, ContactOutcomeNoAnswer, ContactOutcomeWrongNumber,
		ContactOutcomePaymentPromise, ContactOutcomePartialDeal, ContactOutcomeRefusesToPay:
		return true
	}
	return false
}
