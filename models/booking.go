package models

import "time"

// BookingStatus is the booking lifecycle state. Transitions go through
// services.BookingLifecycle only; nothing else writes Booking.Status.
type BookingStatus string

const (
	BookingPendingLandlord  BookingStatus = "PENDING_LANDLORD"
	BookingPendingSignature BookingStatus = "PENDING_SIGNATURE"
	BookingAwaitingDeposit  BookingStatus = "AWAITING_DEPOSIT"
	BookingEscrowFundedT    BookingStatus = "ESCROW_FUNDED_T"
	BookingReadyForHandover BookingStatus = "READY_FOR_HANDOVER"
	BookingActive           BookingStatus = "ACTIVE"
	BookingDualEscrowFunded BookingStatus = "DUAL_ESCROW_FUNDED"
	BookingSettled          BookingStatus = "SETTLED"
	BookingTerminated       BookingStatus = "TERMINATED"
	BookingCancelled        BookingStatus = "CANCELLED"
	BookingRejected         BookingStatus = "REJECTED"
)

// AllStatuses lists every lifecycle state, used by the lifecycle totality test.
var AllStatuses = []BookingStatus{
	BookingPendingLandlord,
	BookingPendingSignature,
	BookingAwaitingDeposit,
	BookingEscrowFundedT,
	BookingReadyForHandover,
	BookingActive,
	BookingDualEscrowFunded,
	BookingSettled,
	BookingTerminated,
	BookingCancelled,
	BookingRejected,
}

// IsTerminal reports whether no further transition can leave the state.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingSettled, BookingTerminated, BookingCancelled, BookingRejected:
		return true
	}
	return false
}

// IsOccupancy reports whether the tenant has moved in.
func (s BookingStatus) IsOccupancy() bool {
	return s == BookingActive || s == BookingDualEscrowFunded
}

type Booking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	TenantID   uint          `gorm:"not null;index" json:"tenant_id"`
	Tenant     User          `gorm:"foreignKey:TenantID" json:"tenant"`
	PropertyID uint          `gorm:"not null;index" json:"property_id"`
	Property   Property      `gorm:"foreignKey:PropertyID" json:"property"`
	RoomID     *uint         `gorm:"index" json:"room_id,omitempty"`
	Room       *Room         `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Status     BookingStatus `gorm:"type:varchar(20);not null;default:'PENDING_LANDLORD';index" json:"status"`
	// LandlordEscrowFunded marks the counter-escrow; the tenant's handover
	// confirmation lands on DUAL_ESCROW_FUNDED when it is set.
	LandlordEscrowFunded bool           `gorm:"not null;default:false" json:"landlord_escrow_funded"`
	StartDate            time.Time      `json:"start_date"`
	EndDate              time.Time      `json:"end_date"`
	DepositDeadline      *time.Time     `json:"deposit_deadline,omitempty"`
	Contract             *Contract      `gorm:"foreignKey:BookingID" json:"contract,omitempty"`
	Events               []BookingEvent `gorm:"foreignKey:BookingID" json:"events,omitempty"`
	CreatedAt            time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null" json:"updated_at"`
}

// BookingEvent is the append-only audit trail of a booking. It backs the
// contract history endpoints.
type BookingEvent struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	BookingID  uint          `gorm:"not null;index" json:"booking_id"`
	ActorID    uint          `json:"actor_id"`
	Action     string        `gorm:"type:varchar(40);not null" json:"action"`
	FromStatus BookingStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   BookingStatus `gorm:"type:varchar(20)" json:"to_status"`
	Detail     string        `gorm:"type:varchar(255)" json:"detail"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
}
