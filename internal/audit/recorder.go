package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-service/internal/model"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// Entry describes one stock movement to be recorded
type Entry struct {
	InventoryID     uint
	ProductID       string
	Type            model.TransactionType
	Quantity        int
	SerialNumbers   []string
	SupplierID      *uint
	BatchRef        string
	Reason          string
	Notes           string
	TransactionDate time.Time
	CreatedBy       string
}

// Recorder appends immutable audit rows for stock movements. It is the only
// component that writes inventory_transactions.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a transaction recorder
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// newTransactionID generates a globally unique transaction identifier. The
// format combines a timestamp with a random suffix; only uniqueness matters.
func newTransactionID() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("TXN-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}

// RecordTx appends one audit row inside the caller's transaction and returns
// the generated transaction ID. Quantity must be the non-negative magnitude
// of the movement.
func (r *Recorder) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) (string, error) {
	log := logger.FromContext(ctx)

	if entry.Quantity < 0 {
		return "", fmt.Errorf("transaction quantity must be a non-negative magnitude, got %d", entry.Quantity)
	}

	transactionDate := entry.TransactionDate
	if transactionDate.IsZero() {
		transactionDate = time.Now().UTC()
	}

	record := model.InventoryTransaction{
		TransactionID:   newTransactionID(),
		InventoryID:     entry.InventoryID,
		ProductID:       entry.ProductID,
		Type:            entry.Type,
		Quantity:        entry.Quantity,
		SerialNumbers:   strings.Join(entry.SerialNumbers, ","),
		SupplierID:      entry.SupplierID,
		BatchRef:        entry.BatchRef,
		Reason:          entry.Reason,
		Notes:           entry.Notes,
		TransactionDate: transactionDate,
		CreatedBy:       entry.CreatedBy,
	}

	result := tx.WithContext(ctx).Create(&record)
	if result.Error != nil {
		log.Error("Failed to record inventory transaction",
			zap.String("product_id", entry.ProductID),
			zap.String("type", string(entry.Type)),
			zap.Error(result.Error))
		return "", fmt.Errorf("record transaction for %q: %w", entry.ProductID, result.Error)
	}

	prometheus.RecordStockTransaction(string(entry.Type))
	return record.TransactionID, nil
}

// History returns the most recent transactions for a product, newest first.
// Reporting reads through here; the table itself stays append-only.
func (r *Recorder) History(ctx context.Context, productID string, limit int) ([]model.InventoryTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var transactions []model.InventoryTransaction
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("transaction_date DESC, id DESC").
		Limit(limit).
		Find(&transactions)
	if result.Error != nil {
		return nil, fmt.Errorf("query transaction history for %q: %w", productID, result.Error)
	}
	return transactions, nil
}
