package model

import (
	"time"
)

// SerialStatus describes where a tracked unit sits in its lifecycle
type SerialStatus string

const (
	SerialAvailable SerialStatus = "available"
	SerialSold      SerialStatus = "sold"
	SerialDefective SerialStatus = "defective"
	SerialReturned  SerialStatus = "returned"
)

// serialTransitions is the closed transition table for serial statuses.
// A unit starts as available; once it leaves that state it never comes back.
var serialTransitions = map[SerialStatus][]SerialStatus{
	SerialAvailable: {SerialSold, SerialDefective, SerialReturned},
	SerialDefective: {SerialReturned},
	SerialSold:      {},
	SerialReturned:  {},
}

// Valid reports whether s is one of the known statuses
func (s SerialStatus) Valid() bool {
	_, ok := serialTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status change from s to next is allowed
func (s SerialStatus) CanTransitionTo(next SerialStatus) bool {
	for _, allowed := range serialTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SerialNumber tracks one physically serialized unit. The
// (serial_number, product_id) pair is unique for the lifetime of the row, so
// a serial can never be re-registered for the same product.
type SerialNumber struct {
	ID           uint         `json:"id" gorm:"primarykey"`
	SerialNumber string       `json:"serial_number" gorm:"type:varchar(100);uniqueIndex:idx_serial_product;not null"`
	ProductID    string       `json:"product_id" gorm:"type:varchar(64);uniqueIndex:idx_serial_product;index;not null"`
	Status       SerialStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	SupplierID   *uint        `json:"supplier_id,omitempty" gorm:"index"`
	Notes        string       `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
