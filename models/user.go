package models

import "time"

// User roles
const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Email     string `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password  string `gorm:"type:varchar(255);not null" json:"-"`
	Phone     string `gorm:"type:varchar(32)" json:"phone"`
	Role      string `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
