package model

import (
	"time"
)

// TransactionType classifies a stock transaction
type TransactionType string

const (
	TransactionIn               TransactionType = "in"
	TransactionOut              TransactionType = "out"
	TransactionReturnToSupplier TransactionType = "return_to_supplier"
)

// InventoryRecord holds the aggregate stock position for one product.
// Created lazily on the first stock movement and never deleted; Stock is
// never negative.
type InventoryRecord struct {
	ID              uint       `json:"id" gorm:"primarykey"`
	ProductID       string     `json:"product_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	Stock           int        `json:"stock" gorm:"not null;default:0"`
	ReorderPoint    int        `json:"reorder_point" gorm:"not null;default:10"`
	SupplierID      *uint      `json:"supplier_id,omitempty" gorm:"index"`
	LastRestockDate *time.Time `json:"last_restock_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// DefaultReorderPoint is applied when a record is created without an explicit threshold.
const DefaultReorderPoint = 10

// InventoryTransaction is the append-only audit record for every stock
// movement. Rows are never updated or deleted. SupplierID, BatchRef and
// Reason are stored as typed columns so audit queries do not have to parse
// the denormalized note text.
type InventoryTransaction struct {
	ID              uint            `json:"id" gorm:"primarykey"`
	TransactionID   string          `json:"transaction_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	InventoryID     uint            `json:"inventory_id" gorm:"index;not null"`
	ProductID       string          `json:"product_id" gorm:"type:varchar(64);index;not null"`
	Type            TransactionType `json:"type" gorm:"type:varchar(32);not null"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	SerialNumbers   string          `json:"serial_numbers,omitempty" gorm:"type:text"`
	SupplierID      *uint           `json:"supplier_id,omitempty" gorm:"index"`
	BatchRef        string          `json:"batch_ref,omitempty" gorm:"type:varchar(100);index"`
	Reason          string          `json:"reason,omitempty" gorm:"type:varchar(255)"`
	Notes           string          `json:"notes,omitempty" gorm:"type:text"`
	TransactionDate time.Time       `json:"transaction_date" gorm:"index;not null"`
	CreatedBy       string          `json:"created_by" gorm:"type:varchar(100)"`
	CreatedAt       time.Time       `json:"created_at"`
}
