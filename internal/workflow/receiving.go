package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inventory-service/internal/catalog"
	"inventory-service/internal/ledger"
	"inventory-service/internal/serial"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

// ErrInvalidLineItem is returned for a malformed or non-positive line item
var ErrInvalidLineItem = errors.New("invalid line item")

// LineItem is one product entry in a receiving or return batch
type LineItem struct {
	ProductID     string   `json:"product_id"`
	Quantity      int      `json:"quantity"`
	SerialNumbers []string `json:"serial_numbers,omitempty"`
}

// ReceiveRequest describes one incoming shipment
type ReceiveRequest struct {
	SupplierID   uint       `json:"supplier_id"`
	ReceivedBy   string     `json:"received_by"`
	BatchRef     string     `json:"batch_ref"`
	ReceivedDate time.Time  `json:"received_date"`
	Items        []LineItem `json:"items"`
}

// Receiving orchestrates bulk stock-in: one shipment, many products, one
// transaction. Any failure rolls the whole batch back.
type Receiving struct {
	db       *gorm.DB
	catalog  catalog.Catalog
	ledger   *ledger.Ledger
	registry *serial.Registry
}

// NewReceiving creates the receiving workflow
func NewReceiving(db *gorm.DB, cat catalog.Catalog, l *ledger.Ledger, r *serial.Registry) *Receiving {
	return &Receiving{db: db, catalog: cat, ledger: l, registry: r}
}

// Receive processes an incoming shipment as a single unit of work. Each line
// item produces one stock adjustment (and its audit transaction) plus one
// serial registration per supplied serial number.
func (w *Receiving) Receive(ctx context.Context, req ReceiveRequest) error {
	log := logger.FromContext(ctx)

	if len(req.Items) == 0 {
		return fmt.Errorf("%w: batch contains no line items", ErrInvalidLineItem)
	}

	log.Info("Processing receiving batch",
		zap.Uint("supplier_id", req.SupplierID),
		zap.String("batch_ref", req.BatchRef),
		zap.Int("line_items", len(req.Items)))

	err := w.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			if err := w.receiveItem(ctx, tx, req, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		prometheus.RecordReceivingBatch("failure")
		log.Error("Receiving batch rolled back",
			zap.String("batch_ref", req.BatchRef),
			zap.Error(err))
		return err
	}

	prometheus.RecordReceivingBatch("success")
	log.Info("Receiving batch committed",
		zap.String("batch_ref", req.BatchRef),
		zap.Int("line_items", len(req.Items)))
	return nil
}

func (w *Receiving) receiveItem(ctx context.Context, tx *gorm.DB, req ReceiveRequest, item LineItem) error {
	log := logger.FromContext(ctx)

	if item.Quantity <= 0 {
		return fmt.Errorf("%w: product %s has quantity %d", ErrInvalidLineItem, item.ProductID, item.Quantity)
	}

	note := fmt.Sprintf("Received %d from supplier #%d (batch %s) by %s",
		item.Quantity, req.SupplierID, req.BatchRef, req.ReceivedBy)
	if len(item.SerialNumbers) > 0 {
		note += "; serials: " + strings.Join(item.SerialNumbers, ",")
	}

	supplierID := req.SupplierID
	err := w.ledger.AdjustTx(ctx, tx, item.ProductID, item.Quantity, ledger.AdjustOptions{
		SupplierID:      &supplierID,
		TransactionDate: req.ReceivedDate,
		SerialNumbers:   item.SerialNumbers,
		BatchRef:        req.BatchRef,
		Notes:           note,
		CreatedBy:       req.ReceivedBy,
	})
	if err != nil {
		return err
	}

	// The serial count is not required to match the quantity; callers of the
	// original system rely on that leniency. An imbalance on a serialized
	// product is still worth surfacing.
	requiresSerial, err := w.catalog.RequiresSerial(ctx, tx, item.ProductID)
	if err != nil {
		return err
	}
	if requiresSerial && len(item.SerialNumbers) != item.Quantity {
		log.Warn("Serial count does not match received quantity for serialized product",
			zap.String("product_id", item.ProductID),
			zap.Int("quantity", item.Quantity),
			zap.Int("serial_count", len(item.SerialNumbers)))
	}
	if !requiresSerial && len(item.SerialNumbers) > 0 {
		log.Warn("Serial numbers supplied for a non-serialized product",
			zap.String("product_id", item.ProductID),
			zap.Int("serial_count", len(item.SerialNumbers)))
	}

	serialNote := fmt.Sprintf("Received in batch %s from supplier #%d", req.BatchRef, req.SupplierID)
	for _, serialNumber := range item.SerialNumbers {
		if err := w.registry.RegisterTx(ctx, tx, serialNumber, item.ProductID, &supplierID, serialNote); err != nil {
			return err
		}
	}

	return nil
}
