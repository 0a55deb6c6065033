package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-service/internal/catalog"
	"inventory-service/internal/model"
	"inventory-service/internal/serial"
)

func TestReceive_NewProduct(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", false)

	receivedDate := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: receivedDate,
		Items:        []LineItem{{ProductID: "P001", Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	record, err := e.ledger.Get(ctx, "P001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Stock != 10 {
		t.Errorf("expected stock 10, got %d", record.Stock)
	}
	if record.ReorderPoint != 10 {
		t.Errorf("expected reorder point 10, got %d", record.ReorderPoint)
	}
	if record.SupplierID == nil || *record.SupplierID != 7 {
		t.Errorf("expected supplier 7, got %v", record.SupplierID)
	}
	if record.LastRestockDate == nil || !record.LastRestockDate.Equal(receivedDate) {
		t.Errorf("expected last restock date %v, got %v", receivedDate, record.LastRestockDate)
	}

	var transactions []model.InventoryTransaction
	e.db.Where("product_id = ?", "P001").Find(&transactions)
	if len(transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(transactions))
	}
	tx := transactions[0]
	if tx.Type != model.TransactionIn {
		t.Errorf("expected type in, got %s", tx.Type)
	}
	if tx.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", tx.Quantity)
	}
	if tx.BatchRef != "B100" {
		t.Errorf("expected batch ref B100, got %q", tx.BatchRef)
	}
	if tx.SupplierID == nil || *tx.SupplierID != 7 {
		t.Errorf("expected transaction supplier 7, got %v", tx.SupplierID)
	}
	if tx.CreatedBy != "clerk-1" {
		t.Errorf("expected created by clerk-1, got %q", tx.CreatedBy)
	}
	if tx.TransactionID == "" {
		t.Error("expected generated transaction ID")
	}
}

func TestReceive_SerializedLineItem(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", true)

	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: time.Now().UTC(),
		Items: []LineItem{
			{ProductID: "P001", Quantity: 2, SerialNumbers: []string{"SN-1", "SN-2"}},
		},
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	for _, serialNumber := range []string{"SN-1", "SN-2"} {
		if status := e.serialStatus(t, serialNumber, "P001"); status != model.SerialAvailable {
			t.Errorf("expected %s available, got %s", serialNumber, status)
		}
	}

	var tx model.InventoryTransaction
	if err := e.db.Where("product_id = ?", "P001").First(&tx).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if tx.SerialNumbers != "SN-1,SN-2" {
		t.Errorf("expected serial list SN-1,SN-2, got %q", tx.SerialNumbers)
	}
}

func TestReceive_MultipleLineItems(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", false)
	e.seedProduct(t, "P002", true)
	e.seedProduct(t, "P003", false)

	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   3,
		ReceivedBy:   "clerk-2",
		BatchRef:     "B200",
		ReceivedDate: time.Now().UTC(),
		Items: []LineItem{
			{ProductID: "P001", Quantity: 5},
			{ProductID: "P002", Quantity: 2, SerialNumbers: []string{"SN-A", "SN-B"}},
			{ProductID: "P003", Quantity: 8},
		},
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	// One transaction per line item, not one per batch
	if count := e.countRows(t, &model.InventoryTransaction{}); count != 3 {
		t.Errorf("expected 3 transactions, got %d", count)
	}
	if got := e.stock(t, "P001"); got != 5 {
		t.Errorf("expected P001 stock 5, got %d", got)
	}
	if got := e.stock(t, "P002"); got != 2 {
		t.Errorf("expected P002 stock 2, got %d", got)
	}
	if got := e.stock(t, "P003"); got != 8 {
		t.Errorf("expected P003 stock 8, got %d", got)
	}
}

func TestReceive_InvalidQuantityAbortsBatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", false)
	e.seedProduct(t, "P002", false)

	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: time.Now().UTC(),
		Items: []LineItem{
			{ProductID: "P001", Quantity: 5},
			{ProductID: "P002", Quantity: 0},
		},
	})
	if !errors.Is(err, ErrInvalidLineItem) {
		t.Fatalf("expected ErrInvalidLineItem, got %v", err)
	}

	// Nothing from the batch may be visible
	if count := e.countRows(t, &model.InventoryRecord{}); count != 0 {
		t.Errorf("expected no inventory records, got %d", count)
	}
	if count := e.countRows(t, &model.InventoryTransaction{}); count != 0 {
		t.Errorf("expected no transactions, got %d", count)
	}
}

func TestReceive_UnknownProductAbortsBatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", false)

	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: time.Now().UTC(),
		Items: []LineItem{
			{ProductID: "P001", Quantity: 5},
			{ProductID: "GHOST", Quantity: 2},
		},
	})
	if !errors.Is(err, catalog.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	if count := e.countRows(t, &model.InventoryRecord{}); count != 0 {
		t.Errorf("expected no inventory records, got %d", count)
	}
}

func TestReceive_DuplicateSerialAbortsBatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P002", true)

	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: time.Now().UTC(),
		Items:        []LineItem{{ProductID: "P002", Quantity: 1, SerialNumbers: []string{"SN-1"}}},
	})
	if err != nil {
		t.Fatalf("first receive failed: %v", err)
	}

	err = e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   8,
		ReceivedBy:   "clerk-2",
		BatchRef:     "B101",
		ReceivedDate: time.Now().UTC(),
		Items:        []LineItem{{ProductID: "P002", Quantity: 1, SerialNumbers: []string{"SN-1"}}},
	})
	if !errors.Is(err, serial.ErrDuplicateSerial) {
		t.Fatalf("expected ErrDuplicateSerial, got %v", err)
	}

	// The prior registration is untouched and the second batch left no trace
	record, err := e.registry.Lookup(ctx, "SN-1", "P002")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if record.SupplierID == nil || *record.SupplierID != 7 {
		t.Errorf("expected original supplier 7 on serial, got %v", record.SupplierID)
	}
	if got := e.stock(t, "P002"); got != 1 {
		t.Errorf("expected stock 1, got %d", got)
	}
	if count := e.countRows(t, &model.InventoryTransaction{}); count != 1 {
		t.Errorf("expected 1 transaction, got %d", count)
	}
}

func TestReceive_EmptyBatch(t *testing.T) {
	e := newTestEngine(t)

	err := e.receiving.Receive(context.Background(), ReceiveRequest{
		SupplierID: 7,
		ReceivedBy: "clerk-1",
		BatchRef:   "B100",
	})
	if !errors.Is(err, ErrInvalidLineItem) {
		t.Errorf("expected ErrInvalidLineItem, got %v", err)
	}
}

func TestReceive_SerialCountMismatchIsLenient(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	e.seedProduct(t, "P001", true)

	// Five units but only two serials recorded; the batch still commits.
	err := e.receiving.Receive(ctx, ReceiveRequest{
		SupplierID:   7,
		ReceivedBy:   "clerk-1",
		BatchRef:     "B100",
		ReceivedDate: time.Now().UTC(),
		Items: []LineItem{
			{ProductID: "P001", Quantity: 5, SerialNumbers: []string{"SN-1", "SN-2"}},
		},
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}

	if got := e.stock(t, "P001"); got != 5 {
		t.Errorf("expected stock 5, got %d", got)
	}
	if count := e.countRows(t, &model.SerialNumber{}); count != 2 {
		t.Errorf("expected 2 serials, got %d", count)
	}
}
