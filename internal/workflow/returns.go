package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-service/internal/audit"
	"inventory-service/internal/ledger"
	"inventory-service/internal/model"
	"inventory-service/internal/serial"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// ErrInvalidReturnState is returned when a serial's current status does not
// permit sending it back to the supplier through this workflow
var ErrInvalidReturnState = errors.New("serial cannot be returned in its current state")

// ReturnRequest describes one outgoing return to a supplier
type ReturnRequest struct {
	SupplierID uint       `json:"supplier_id"`
	ReturnedBy string     `json:"returned_by"`
	ReturnDate time.Time  `json:"return_date"`
	Reason     string     `json:"reason"`
	Items      []LineItem `json:"items"`
}

// Returns orchestrates supplier returns. Only serials still counted as active
// stock decrement the aggregate; units already flagged defective left the
// count when they were flagged, so deducting them again would double-count
// the loss.
type Returns struct {
	db       *gorm.DB
	ledger   *ledger.Ledger
	registry *serial.Registry
	recorder *audit.Recorder
}

// NewReturns creates the supplier-return workflow
func NewReturns(db *gorm.DB, l *ledger.Ledger, r *serial.Registry, rec *audit.Recorder) *Returns {
	return &Returns{db: db, ledger: l, registry: r, recorder: rec}
}

// ReturnToSupplier processes an outgoing return as a single unit of work.
// Serialized line items derive the deducted quantity from the serials'
// statuses; non-serialized ones deduct the requested quantity directly. The
// deduction is guarded, never clamped.
func (w *Returns) ReturnToSupplier(ctx context.Context, req ReturnRequest) error {
	log := logger.FromContext(ctx)

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: batch contains no line items", ErrInvalidLineItem)
	}

	log.Info("Processing supplier return",
		zap.Uint("supplier_id", req.SupplierID),
		zap.String("reason", req.Reason),
		zap.Int("line_items", len(req.Items)))

	err := w.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			if err := w.returnItem(ctx, tx, req, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		prometheus.RecordSupplierReturn("failure")
		log.Error("Supplier return rolled back",
			zap.Uint("supplier_id", req.SupplierID),
			zap.Error(err))
		return err
	}

	prometheus.RecordSupplierReturn("success")
	log.Info("Supplier return committed",
		zap.Uint("supplier_id", req.SupplierID),
		zap.Int("line_items", len(req.Items)))
	return nil
}

func (w *Returns) returnItem(ctx context.Context, tx *gorm.DB, req ReturnRequest, item LineItem) error {
	log := logger.FromContext(ctx)

	quantityToDeduct := 0
	if len(item.SerialNumbers) > 0 {
		serialNote := fmt.Sprintf("Returned to supplier #%d: %s", req.SupplierID, req.Reason)
		for _, serialNumber := range item.SerialNumbers {
			record, err := w.registry.LookupTx(ctx, tx, serialNumber, item.ProductID)
			if err != nil {
				return err
			}

			switch record.Status {
			case model.SerialAvailable:
				// Still counted as active stock, so the return removes one unit.
				quantityToDeduct++
			case model.SerialDefective:
				// Already excluded from active stock when it was flagged.
			default:
				return fmt.Errorf("%w: serial %s for product %s is %s",
					ErrInvalidReturnState, serialNumber, item.ProductID, record.Status)
			}

			if err := w.registry.TransitionTx(ctx, tx, serialNumber, item.ProductID, model.SerialReturned, serialNote); err != nil {
				return err
			}
		}
	} else {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %s has quantity %d", ErrInvalidLineItem, item.ProductID, item.Quantity)
		}
		quantityToDeduct = item.Quantity
	}

	var record *model.InventoryRecord
	var err error
	if quantityToDeduct > 0 {
		record, err = w.ledger.DeductTx(ctx, tx, item.ProductID, quantityToDeduct)
	} else {
		record, err = w.ledger.GetTx(ctx, tx, item.ProductID)
	}
	if err != nil {
		return err
	}

	supplierID := req.SupplierID
	note := fmt.Sprintf("Returned %d to supplier #%d by %s: %s",
		quantityToDeduct, req.SupplierID, req.ReturnedBy, req.Reason)
	_, err = w.recorder.RecordTx(ctx, tx, audit.Entry{
		InventoryID:     record.ID,
		ProductID:       item.ProductID,
		Type:            model.TransactionReturnToSupplier,
		Quantity:        quantityToDeduct,
		SerialNumbers:   item.SerialNumbers,
		SupplierID:      &supplierID,
		Reason:          req.Reason,
		Notes:           note,
		TransactionDate: req.ReturnDate,
		CreatedBy:       req.ReturnedBy,
	})
	if err != nil {
		return err
	}

	log.Info("Return line item processed",
		zap.String("product_id", item.ProductID),
		zap.Int("deducted", quantityToDeduct),
		zap.Int("serials", len(item.SerialNumbers)))
	return nil
}
