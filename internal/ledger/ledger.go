package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-service/internal/audit"
	"inventory-service/internal/catalog"
	"inventory-service/internal/model"
	"inventory-service/pkg/database"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

var (
	// ErrInventoryNotFound is returned when no inventory record exists for a product
	ErrInventoryNotFound = errors.New("inventory record not found")

	// ErrInsufficientStock is returned when a guarded deduction would drive stock negative
	ErrInsufficientStock = errors.New("insufficient stock")
)

// AdjustOptions carries the optional fields of a stock adjustment. ReorderPoint
// overwrites the stored threshold when set; SupplierID and TransactionDate
// update the record's restock attribution. The remaining fields are audit
// context copied onto the recorded transaction.
type AdjustOptions struct {
	ReorderPoint    *int
	SupplierID      *uint
	TransactionDate time.Time
	SerialNumbers   []string
	BatchRef        string
	Notes           string
	CreatedBy       string
}

// Ledger owns the aggregate stock position per product. Every write to
// inventory_records in the whole system goes through AdjustTx.
type Ledger struct {
	db       *gorm.DB
	catalog  catalog.Catalog
	recorder *audit.Recorder
}

// NewLedger creates a stock ledger
func NewLedger(db *gorm.DB, cat catalog.Catalog, recorder *audit.Recorder) *Ledger {
	return &Ledger{db: db, catalog: cat, recorder: recorder}
}

// Adjust applies a stock delta inside its own transaction. Callers already
// holding a transaction use AdjustTx instead.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int, opts AdjustOptions) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		return l.AdjustTx(ctx, tx, productID, delta, opts)
	})
}

// AdjustTx applies a stock delta inside the caller's transaction. The record
// is created lazily on first movement. A negative result is clamped to zero
// rather than failed; callers that need a hard floor validate before calling.
// Exactly one audit transaction is recorded per call.
func (l *Ledger) AdjustTx(ctx context.Context, tx *gorm.DB, productID string, delta int, opts AdjustOptions) error {
	defer prometheus.TrackDBOperation("ledger_adjust")(time.Now())
	log := logger.FromContext(ctx)

	exists, err := l.catalog.ProductExists(ctx, tx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", catalog.ErrProductNotFound, productID)
	}

	// Lock the row so concurrent adjustments to the same product serialize.
	var record model.InventoryRecord
	result := database.ForUpdate(tx.WithContext(ctx)).
		Where("product_id = ?", productID).
		First(&record)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load inventory record for %q: %w", productID, result.Error)
		}
		record = model.InventoryRecord{
			ProductID:    productID,
			Stock:        0,
			ReorderPoint: model.DefaultReorderPoint,
		}
	}

	newStock := record.Stock + delta
	if newStock < 0 {
		log.Warn("Stock adjustment clamped at zero",
			zap.String("product_id", productID),
			zap.Int("current_stock", record.Stock),
			zap.Int("delta", delta))
		newStock = 0
	}
	record.Stock = newStock

	if opts.ReorderPoint != nil {
		record.ReorderPoint = *opts.ReorderPoint
	}
	if opts.SupplierID != nil {
		record.SupplierID = opts.SupplierID
	}
	if delta > 0 {
		restockDate := opts.TransactionDate
		if restockDate.IsZero() {
			restockDate = time.Now().UTC()
		}
		record.LastRestockDate = &restockDate
	}

	if err := tx.WithContext(ctx).Save(&record).Error; err != nil {
		return fmt.Errorf("save inventory record for %q: %w", productID, err)
	}

	transactionType := model.TransactionIn
	quantity := delta
	if delta <= 0 {
		transactionType = model.TransactionOut
		quantity = -delta
	}

	_, err = l.recorder.RecordTx(ctx, tx, audit.Entry{
		InventoryID:     record.ID,
		ProductID:       productID,
		Type:            transactionType,
		Quantity:        quantity,
		SerialNumbers:   opts.SerialNumbers,
		SupplierID:      opts.SupplierID,
		BatchRef:        opts.BatchRef,
		Notes:           opts.Notes,
		TransactionDate: opts.TransactionDate,
		CreatedBy:       opts.CreatedBy,
	})
	if err != nil {
		return err
	}

	prometheus.SetStockLevel(productID, record.Stock)
	log.Info("Stock adjusted",
		zap.String("product_id", productID),
		zap.Int("delta", delta),
		zap.Int("stock", record.Stock))
	return nil
}

// DeductTx subtracts a quantity from a product's stock inside the caller's
// transaction. Unlike AdjustTx it never clamps: when the stock cannot cover
// the quantity the call fails with ErrInsufficientStock and nothing changes.
// The caller records its own audit transaction with the true deducted amount.
func (l *Ledger) DeductTx(ctx context.Context, tx *gorm.DB, productID string, quantity int) (*model.InventoryRecord, error) {
	defer prometheus.TrackDBOperation("ledger_deduct")(time.Now())

	if quantity < 0 {
		return nil, fmt.Errorf("deduction quantity must be non-negative, got %d", quantity)
	}

	var record model.InventoryRecord
	result := database.ForUpdate(tx.WithContext(ctx)).
		Where("product_id = ?", productID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInventoryNotFound, productID)
		}
		return nil, fmt.Errorf("load inventory record for %q: %w", productID, result.Error)
	}

	if record.Stock < quantity {
		return nil, fmt.Errorf("%w: product %s has %d, requested %d",
			ErrInsufficientStock, productID, record.Stock, quantity)
	}

	if quantity > 0 {
		record.Stock -= quantity
		if err := tx.WithContext(ctx).Save(&record).Error; err != nil {
			return nil, fmt.Errorf("save inventory record for %q: %w", productID, err)
		}
		prometheus.SetStockLevel(productID, record.Stock)
	}

	return &record, nil
}

// Get returns the inventory record for a product
func (l *Ledger) Get(ctx context.Context, productID string) (*model.InventoryRecord, error) {
	return l.GetTx(ctx, l.db, productID)
}

// GetTx returns the inventory record for a product inside the caller's transaction
func (l *Ledger) GetTx(ctx context.Context, tx *gorm.DB, productID string) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	result := tx.WithContext(ctx).Where("product_id = ?", productID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInventoryNotFound, productID)
		}
		return nil, fmt.Errorf("load inventory record for %q: %w", productID, result.Error)
	}
	return &record, nil
}

// LowStock returns the records at or below their reorder point, the read the
// reporting screens poll for restock alerts.
func (l *Ledger) LowStock(ctx context.Context) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	result := l.db.WithContext(ctx).
		Where("stock <= reorder_point").
		Order("stock ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query low stock records: %w", result.Error)
	}
	return records, nil
}
