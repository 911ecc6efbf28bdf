package repository

import (
	"context"
	"errors"

	"github.com/olaysco/ecomm-api/models"
)

var (
	// ErrNotFound is returned when a product does not exist or was soft-deleted.
	ErrNotFound = errors.New("product not found")
	// ErrVersionConflict is returned when a guarded write lost a race.
	ErrVersionConflict = errors.New("product version conflict")
	// ErrDuplicateSlug is returned when the slug is already taken.
	ErrDuplicateSlug = errors.New("product slug already exists")
)

// ProductFilter holds allow-listed filter keys and their raw query values.
type ProductFilter map[string]string

type SortOption struct {
	Field      string
	Descending bool
}

type FindOptions struct {
	Sort  []SortOption
	Limit int
	Skip  int
}

// ProductRepo defines the storage operations behind the product API.
// It uses plain Go types so the Mongo, DynamoDB and in-memory adapters are
// interchangeable.
type ProductRepo interface {
	Find(ctx context.Context, filter ProductFilter, opts FindOptions) ([]*models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// Create assigns timestamps and the initial version.
	Create(ctx context.Context, product *models.Product) error
	// Replace overwrites a live product only if its stored version equals
	// expectedVersion. On success product.Version holds the new version.
	Replace(ctx context.Context, product *models.Product, expectedVersion int64) error
	SoftDelete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// ProductImporter stores a product exactly as given, keeping its id,
// timestamps, version and deleted flag. Used when copying between stores.
type ProductImporter interface {
	Put(ctx context.Context, product *models.Product) error
}
