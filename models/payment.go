package models

import "time"

// Payment purposes
const (
	PaymentPurposeDeposit        = "DEPOSIT"
	PaymentPurposeCounterDeposit = "COUNTER_DEPOSIT"
	PaymentPurposeRent           = "RENT"
)

// Payment represents an escrow or rent transaction for a booking.
type Payment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	BookingID   uint       `json:"booking_id" gorm:"not null;index"`
	Booking     Booking    `json:"booking" gorm:"foreignKey:BookingID"`
	PayerID     uint       `json:"payer_id" gorm:"not null"`
	Purpose     string     `json:"purpose" gorm:"type:varchar(20);not null"`
	Amount      float64    `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status      string     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Method      string     `json:"method" gorm:"type:varchar(20);not null;default:'qris'"`
	ReferenceID string     `json:"reference_id" gorm:"type:varchar(64);index"`
	QRCode      string     `json:"qr_code"`     // raw QR string for QRIS
	PaymentURL  string     `json:"payment_url"` // redirect URL for VA / e-wallet flows
	PaymentTime *time.Time `json:"payment_time"`
	ExpiredAt   *time.Time `json:"expired_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
