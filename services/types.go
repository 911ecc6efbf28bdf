package services

import (
	"context"

	"github.com/olaysco/ecomm-api/models"
)

// CreateProductRequest is the accepted body of POST /products.
type CreateProductRequest struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	Weight      *float64 `json:"weight"`
	Height      *float64 `json:"height"`
	Description string   `json:"description"`
}

// UpdateProductRequest is a partial update; nil fields keep their stored value.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Brand       *string  `json:"brand"`
	Price       *float64 `json:"price"`
	Weight      *float64 `json:"weight"`
	Height      *float64 `json:"height"`
	Description *string  `json:"description"`
}

// ProductCache is the read-through cache used by ProductService. Entries are
// keyed by a generation number that Invalidate bumps, so a value read under
// an older generation is never served after a write.
type ProductCache interface {
	Generation(ctx context.Context) (int64, error)
	GetProduct(ctx context.Context, generation int64, id string) (*models.Product, bool)
	SetProductAsync(generation int64, product *models.Product)
	GetList(ctx context.Context, generation int64, key string) ([]*models.Product, int64, bool)
	SetListAsync(generation int64, key string, products []*models.Product, count int64)
	// Invalidate retires cached entries after a write to id. An empty id
	// retires everything without targeting a product.
	Invalidate(ctx context.Context, id string) error
}

// MetricsRecorder records business counters.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}
