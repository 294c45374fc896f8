package models

import "time"

// Payment statuses: submitted -> verified | rejected
const (
	PaymentSubmitted = "submitted"
	PaymentVerified  = "verified"
	PaymentRejected  = "rejected"
)

// Payment adalah record submission pembayaran untuk satu bill.
// Append-only: status berubah, record tidak pernah dihapus.
type Payment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BillID     uint       `gorm:"not null;index" json:"bill_id"`
	Bill       Bill       `gorm:"foreignKey:BillID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	StudentID  uint       `gorm:"not null;index" json:"student_id"`
	Student    Student    `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Amount     float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method     string     `gorm:"type:varchar(50)" json:"method"`
	Reference  string     `gorm:"type:varchar(120)" json:"reference"`
	Notes      string     `gorm:"type:text" json:"notes"`
	Status     string     `gorm:"type:varchar(20);not null;default:'submitted'" json:"status"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy string     `gorm:"type:varchar(80)" json:"verified_by,omitempty"`
	MessID     uint       `gorm:"index;not null" json:"mess_id"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}
