package serial

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-service/internal/model"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

var (
	// ErrSerialNotFound is returned when a serial does not exist for the given product
	ErrSerialNotFound = errors.New("serial number not found")

	// ErrDuplicateSerial is returned when a serial is already registered for the product
	ErrDuplicateSerial = errors.New("serial number already registered")

	// ErrInvalidTransition is returned when the status change is not in the transition table
	ErrInvalidTransition = errors.New("invalid serial status transition")
)

// Registry owns the lifecycle of individually tracked units. All writes to
// serial_numbers go through it.
type Registry struct {
	db *gorm.DB
}

// NewRegistry creates a serial number registry
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// RegisterTx creates a serial in status available inside the caller's
// transaction. The (serial, product) pair must not already exist.
func (r *Registry) RegisterTx(ctx context.Context, tx *gorm.DB, serialNumber, productID string, supplierID *uint, note string) error {
	log := logger.FromContext(ctx)

	var count int64
	result := tx.WithContext(ctx).Model(&model.SerialNumber{}).
		Where("serial_number = ? AND product_id = ?", serialNumber, productID).
		Count(&count)
	if result.Error != nil {
		return fmt.Errorf("check serial %q for %q: %w", serialNumber, productID, result.Error)
	}
	if count > 0 {
		log.Warn("Serial number already registered",
			zap.String("serial_number", serialNumber),
			zap.String("product_id", productID))
		return fmt.Errorf("%w: %s for product %s", ErrDuplicateSerial, serialNumber, productID)
	}

	record := model.SerialNumber{
		SerialNumber: serialNumber,
		ProductID:    productID,
		Status:       model.SerialAvailable,
		SupplierID:   supplierID,
		Notes:        note,
	}
	if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("register serial %q for %q: %w", serialNumber, productID, err)
	}

	return nil
}

// Lookup returns the serial record for a (serial, product) pair
func (r *Registry) Lookup(ctx context.Context, serialNumber, productID string) (*model.SerialNumber, error) {
	return r.LookupTx(ctx, r.db, serialNumber, productID)
}

// LookupTx returns the serial record inside the caller's transaction
func (r *Registry) LookupTx(ctx context.Context, tx *gorm.DB, serialNumber, productID string) (*model.SerialNumber, error) {
	var record model.SerialNumber
	result := tx.WithContext(ctx).
		Where("serial_number = ? AND product_id = ?", serialNumber, productID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s for product %s", ErrSerialNotFound, serialNumber, productID)
		}
		return nil, fmt.Errorf("load serial %q for %q: %w", serialNumber, productID, result.Error)
	}
	return &record, nil
}

// TransitionTx moves a serial to a new status inside the caller's
// transaction, enforcing the transition table. The note is appended to the
// serial's audit notes.
func (r *Registry) TransitionTx(ctx context.Context, tx *gorm.DB, serialNumber, productID string, newStatus model.SerialStatus, note string) error {
	log := logger.FromContext(ctx)

	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	record, err := r.LookupTx(ctx, tx, serialNumber, productID)
	if err != nil {
		return err
	}

	if !record.Status.CanTransitionTo(newStatus) {
		log.Warn("Rejected serial status transition",
			zap.String("serial_number", serialNumber),
			zap.String("product_id", productID),
			zap.String("from", string(record.Status)),
			zap.String("to", string(newStatus)))
		return fmt.Errorf("%w: %s -> %s for serial %s", ErrInvalidTransition, record.Status, newStatus, serialNumber)
	}

	record.Status = newStatus
	if note != "" {
		if record.Notes != "" {
			record.Notes += "\n"
		}
		record.Notes += note
	}

	if err := tx.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("update serial %q for %q: %w", serialNumber, productID, err)
	}

	prometheus.RecordSerialTransition(string(newStatus))
	log.Info("Serial status transitioned",
		zap.String("serial_number", serialNumber),
		zap.String("product_id", productID),
		zap.String("status", string(newStatus)))
	return nil
}

// AvailableSerials returns the serials still in status available for a product
func (r *Registry) AvailableSerials(ctx context.Context, productID string) ([]model.SerialNumber, error) {
	var records []model.SerialNumber
	result := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, model.SerialAvailable).
		Order("serial_number ASC").
		Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("query available serials for %q: %w", productID, result.Error)
	}
	return records, nil
}
