package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"inventory-service/internal/model"
	"inventory-service/pkg/config"
	"inventory-service/pkg/database"
	"inventory-service/pkg/logger"
	"inventory-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("inventory-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting inventory-service", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	db, err := database.InitDB(&appConfig.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Run migrations. The products table belongs to the catalog service; this
	// service only migrates its own inventory, serial and transaction tables.
	err = database.MigrateModels(db,
		&model.InventoryRecord{},
		&model.SerialNumber{},
		&model.InventoryTransaction{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations complete")

	// Operational endpoints only. Business operations are exposed as the
	// library surface under internal/ and wired by the consuming application.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
