package workflow

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inventory-service/internal/audit"
	"inventory-service/internal/catalog"
	"inventory-service/internal/ledger"
	"inventory-service/internal/model"
	"inventory-service/internal/serial"
)

type testEngine struct {
	db        *gorm.DB
	ledger    *ledger.Ledger
	registry  *serial.Registry
	recorder  *audit.Recorder
	receiving *Receiving
	returns   *Returns
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// A fresh connection would get a fresh in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get database object: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Product{},
		&model.InventoryRecord{},
		&model.SerialNumber{},
		&model.InventoryTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	cat := catalog.NewGormCatalog()
	recorder := audit.NewRecorder(db)
	l := ledger.NewLedger(db, cat, recorder)
	registry := serial.NewRegistry(db)

	return &testEngine{
		db:        db,
		ledger:    l,
		registry:  registry,
		recorder:  recorder,
		receiving: NewReceiving(db, cat, l, registry),
		returns:   NewReturns(db, l, registry, recorder),
	}
}

func (e *testEngine) seedProduct(t *testing.T, code string, requiresSerial bool) {
	t.Helper()
	product := model.Product{
		Code:           code,
		Name:           "Test " + code,
		RequiresSerial: requiresSerial,
		IsActive:       true,
	}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", code, err)
	}
}

func (e *testEngine) stock(t *testing.T, productID string) int {
	t.Helper()
	record, err := e.ledger.Get(context.Background(), productID)
	if err != nil {
		t.Fatalf("get inventory record for %s: %v", productID, err)
	}
	return record.Stock
}

func (e *testEngine) serialStatus(t *testing.T, serialNumber, productID string) model.SerialStatus {
	t.Helper()
	record, err := e.registry.Lookup(context.Background(), serialNumber, productID)
	if err != nil {
		t.Fatalf("lookup serial %s for %s: %v", serialNumber, productID, err)
	}
	return record.Status
}

func (e *testEngine) countRows(t *testing.T, table interface{}) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(table).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

// markDefective flags a serial the way the external defect-intake flow does:
// the unit leaves the active stock count and its serial is flagged.
func (e *testEngine) markDefective(t *testing.T, serialNumber, productID string) {
	t.Helper()
	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := e.registry.TransitionTx(context.Background(), tx, serialNumber, productID, model.SerialDefective, "flagged defective"); err != nil {
			return err
		}
		_, err := e.ledger.DeductTx(context.Background(), tx, productID, 1)
		return err
	})
	if err != nil {
		t.Fatalf("mark %s defective: %v", serialNumber, err)
	}
}
