package models

import "time"

type Contract struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	BookingID      uint       `gorm:"not null;uniqueIndex" json:"booking_id"`
	ContractCode   string     `gorm:"type:varchar(50);unique;not null" json:"contract_code"`
	SigningMethod  string     `gorm:"type:varchar(20)" json:"signing_method"`
	SignedPdfURL   *string    `gorm:"type:varchar(255)" json:"signed_pdf_url,omitempty"`
	LandlordSigned bool       `gorm:"not null;default:false" json:"landlord_signed"`
	TenantSigned   bool       `gorm:"not null;default:false" json:"tenant_signed"`
	SignedAt       *time.Time `json:"signed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

// Termination request statuses
const (
	TerminationPending  = "PENDING"
	TerminationAccepted = "ACCEPTED"
	TerminationDeclined = "DECLINED"
)

// TerminationRequest ends an occupancy booking early once the counterpart
// accepts it.
type TerminationRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	BookingID   uint       `gorm:"not null;index" json:"booking_id"`
	RequestedBy uint       `gorm:"not null" json:"requested_by"`
	Reason      string     `gorm:"type:varchar(255)" json:"reason"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	RespondedBy *uint      `json:"responded_by,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}
