package stats

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inventory-service/internal/model"
)

// Summary is the stock position rollup the reporting screens read
type Summary struct {
	InStock    int `json:"in_stock"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
	Total      int `json:"total"`
}

// Aggregator computes read-only rollups over the inventory records
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator creates a stats aggregator
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Summary counts products above, at or below their reorder point in one
// aggregate scan. In-stock means above the reorder point; low-stock means a
// positive count at or below it; out-of-stock means zero.
func (a *Aggregator) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	result := a.db.WithContext(ctx).Model(&model.InventoryRecord{}).
		Select(
			"COUNT(CASE WHEN stock > reorder_point THEN 1 END) AS in_stock",
			"COUNT(CASE WHEN stock > 0 AND stock <= reorder_point THEN 1 END) AS low_stock",
			"COUNT(CASE WHEN stock = 0 THEN 1 END) AS out_of_stock",
			"COUNT(*) AS total",
		).
		Scan(&summary)
	if result.Error != nil {
		return nil, fmt.Errorf("aggregate inventory summary: %w", result.Error)
	}
	return &summary, nil
}
