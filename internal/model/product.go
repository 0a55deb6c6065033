package model

import (
	"time"
)

// Product is a read-only projection of the product master data owned by the
// catalog service. The stock engine checks existence and the serialization
// flag here; name, price and category management stay with the catalog.
type Product struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	Code           string    `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	RequiresSerial bool      `json:"requires_serial" gorm:"default:false"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
