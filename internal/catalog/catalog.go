package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inventory-service/internal/model"
)

// ErrProductNotFound is returned when a product code does not reference a known product
var ErrProductNotFound = errors.New("product not found")

// Catalog is the boundary to the product catalog service. The stock engine
// only ever reads existence and the serialization flag through it.
type Catalog interface {
	ProductExists(ctx context.Context, tx *gorm.DB, productID string) (bool, error)
	RequiresSerial(ctx context.Context, tx *gorm.DB, productID string) (bool, error)
}

// GormCatalog reads the catalog's products table directly. It never writes.
type GormCatalog struct{}

// NewGormCatalog creates a catalog backed by the shared products table
func NewGormCatalog() *GormCatalog {
	return &GormCatalog{}
}

// ProductExists reports whether an active product with the given code exists
func (c *GormCatalog) ProductExists(ctx context.Context, tx *gorm.DB, productID string) (bool, error) {
	var count int64
	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("code = ? AND is_active = ?", productID, true).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("query product %q: %w", productID, result.Error)
	}
	return count > 0, nil
}

// RequiresSerial reports whether units of the product are individually serialized
func (c *GormCatalog) RequiresSerial(ctx context.Context, tx *gorm.DB, productID string) (bool, error) {
	var product model.Product
	result := tx.WithContext(ctx).Where("code = ?", productID).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return false, fmt.Errorf("query product %q: %w", productID, result.Error)
	}
	return product.RequiresSerial, nil
}
