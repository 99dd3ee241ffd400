package models

import "time"

// Property types
const (
	PropertyTypeApartment = "APARTMENT"
	PropertyTypeHouse     = "HOUSE"
	PropertyTypeBoarding  = "BOARDING"
)

// Property approval statuses
const (
	PropertyPendingReview = "PENDING_REVIEW"
	PropertyApproved      = "APPROVED"
	PropertyRejected      = "REJECTED"
)

type Property struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	LandlordID   uint       `gorm:"not null;index" json:"landlord_id"`
	Landlord     User       `gorm:"foreignKey:LandlordID" json:"landlord"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Type         string     `gorm:"type:varchar(20);not null" json:"type"`
	Address      string     `gorm:"type:varchar(255);not null" json:"address"`
	City         string     `gorm:"type:varchar(100);not null;index" json:"city"`
	Price        float64    `gorm:"type:decimal(12,2);not null" json:"price"`
	Deposit      float64    `gorm:"type:decimal(12,2);not null" json:"deposit"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    int        `json:"bathrooms"`
	AreaSqM      float64    `json:"area_sqm"`
	ImageUrls    string     `gorm:"type:json" json:"image_urls"`
	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING_REVIEW';index" json:"status"`
	RejectReason *string    `gorm:"type:varchar(255)" json:"reject_reason,omitempty"`
	ReviewedBy   *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	RoomTypes    []RoomType `gorm:"foreignKey:PropertyID" json:"room_types,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// RoomType groups boarding rooms that share pricing.
type RoomType struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	PropertyID uint    `gorm:"not null;index" json:"property_id"`
	Name       string  `gorm:"type:varchar(100);not null" json:"name"`
	Price      float64 `gorm:"type:decimal(12,2);not null" json:"price"`
	Deposit    float64 `gorm:"type:decimal(12,2);not null" json:"deposit"`
	Rooms      []Room  `gorm:"foreignKey:RoomTypeID" json:"rooms,omitempty"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Room struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	RoomTypeID uint     `gorm:"not null;index" json:"room_type_id"`
	RoomType   RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type"`
	Number     string   `gorm:"type:varchar(20);not null" json:"number"`
	Occupied   bool     `gorm:"not null;default:false" json:"occupied"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DepositAmount resolves the escrow amount for a booking target: boarding
// rooms price by room type, everything else by the property itself.
func (p *Property) DepositAmount(room *Room) float64 {
	if p.Type == PropertyTypeBoarding && room != nil {
		return room.RoomType.Deposit
	}
	return p.Deposit
}
