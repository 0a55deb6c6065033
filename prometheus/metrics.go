package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"inventory-service/pkg/config"
)

var (
	// Stock transaction metrics
	StockTransactionsCounter *prometheus.CounterVec

	// Workflow metrics
	ReceivingBatchesCounter *prometheus.CounterVec
	SupplierReturnsCounter  *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Serial lifecycle metrics
	SerialTransitionsCounter *prometheus.CounterVec

	// Inventory level metrics
	StockLevelGauge *prometheus.GaugeVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	// Stock transaction metrics
	StockTransactionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_stock_transactions_total",
			Help: "Total number of recorded stock transactions",
		},
		[]string{"type"},
	)

	// Receiving workflow metrics
	ReceivingBatchesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_receiving_batches_total",
			Help: "Total number of receiving batches processed",
		},
		[]string{"result"},
	)

	// Supplier return workflow metrics
	SupplierReturnsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_supplier_returns_total",
			Help: "Total number of supplier return batches processed",
		},
		[]string{"result"},
	)

	// Database operation metrics
	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Serial lifecycle metrics
	SerialTransitionsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_serial_transitions_total",
			Help: "Total number of serial number status transitions",
		},
		[]string{"to_status"},
	)

	// Inventory level metrics
	StockLevelGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_stock_level",
			Help: "Current stock level for products",
		},
		[]string{"product_id"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordStockTransaction increments the counter for recorded transactions
func RecordStockTransaction(transactionType string) {
	if StockTransactionsCounter == nil {
		return
	}
	StockTransactionsCounter.WithLabelValues(transactionType).Inc()
}

// RecordReceivingBatch increments the counter for receiving batches
func RecordReceivingBatch(result string) {
	if ReceivingBatchesCounter == nil {
		return
	}
	ReceivingBatchesCounter.WithLabelValues(result).Inc()
}

// RecordSupplierReturn increments the counter for supplier return batches
func RecordSupplierReturn(result string) {
	if SupplierReturnsCounter == nil {
		return
	}
	SupplierReturnsCounter.WithLabelValues(result).Inc()
}

// RecordSerialTransition increments the counter for serial status transitions
func RecordSerialTransition(toStatus string) {
	if SerialTransitionsCounter == nil {
		return
	}
	SerialTransitionsCounter.WithLabelValues(toStatus).Inc()
}

// SetStockLevel updates the gauge for a product's stock level
func SetStockLevel(productID string, stock int) {
	if StockLevelGauge == nil {
		return
	}
	StockLevelGauge.WithLabelValues(productID).Set(float64(stock))
}
