package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/olaysco/ecomm-api/common/errors"
	"github.com/olaysco/ecomm-api/models"
	awspkg "github.com/olaysco/ecomm-api/pkg/aws"
	"github.com/olaysco/ecomm-api/repository"
	"go.uber.org/zap"
)

// slug collisions are retried with a fresh suffix this many times.
const maxSlugAttempts = 3

// ProductService defines the product business operations. Every returned
// error is an *apperrors.Error.
type ProductService interface {
	ListProducts(ctx context.Context, q ProductQuery) ([]*models.Product, int64, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	repo      repository.ProductRepo
	cache     ProductCache
	publisher awspkg.SNSPublisher
	topicArn  string
	metrics   MetricsRecorder
	slugs     SlugGenerator
	logger    *zap.Logger

	// cacheStale is set when an invalidation failed; cache reads are skipped
	// until a retried invalidation succeeds.
	cacheStale atomic.Bool
}

// NewProductService wires the product service. cache, publisher and metrics
// may be nil.
func NewProductService(
	repo repository.ProductRepo,
	cache ProductCache,
	publisher awspkg.SNSPublisher,
	topicArn string,
	metrics MetricsRecorder,
	logger *zap.Logger,
) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		topicArn:  topicArn,
		metrics:   metrics,
		slugs:     defaultSlugs,
		logger:    logger,
	}
}

func notFound(id string) error {
	return apperrors.NotFound(fmt.Sprintf("Error product with ID %s not found", id))
}

// validID rejects ids that cannot exist so they never reach the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *productService) generation(ctx context.Context) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	if s.cacheStale.Load() {
		if err := s.cache.Invalidate(ctx, ""); err != nil {
			s.logger.Debug("Product cache still stale", zap.Error(err))
			return 0, false
		}
		s.cacheStale.Store(false)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Debug("Product cache unavailable", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func listCacheKey(q ProductQuery) string {
	filters := url.Values{}
	for k, v := range q.Filters {
		filters.Set(k, v)
	}
	sorts := make([]string, 0, len(q.Sort))
	for _, sf := range q.Sort {
		sorts = append(sorts, sf.Field+":"+sf.Direction)
	}
	return fmt.Sprintf("p:%d:l:%d:s:%s:f:%s", q.Page, q.Limit, strings.Join(sorts, ","), filters.Encode())
}

func (s *productService) ListProducts(ctx context.Context, q ProductQuery) ([]*models.Product, int64, error) {
	gen, cached := s.generation(ctx)
	key := listCacheKey(q)
	if cached {
		if products, count, ok := s.cache.GetList(ctx, gen, key); ok {
			s.recordCount(ctx, awspkg.MetricCacheHits, "list")
			return products, count, nil
		}
		s.recordCount(ctx, awspkg.MetricCacheMisses, "list")
	}

	filter := repository.ProductFilter(q.Filters)
	products, err := s.repo.Find(ctx, filter, q.FindOptions())
	if err != nil {
		s.logger.Error("Failed to find products", zap.Error(err))
		return nil, 0, apperrors.Internal("Error retrieving products", err)
	}
	count, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count products", zap.Error(err))
		return nil, 0, apperrors.Internal("Error retrieving products", err)
	}

	if cached {
		s.cache.SetListAsync(gen, key, products, count)
	}
	return products, count, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if !validID(id) {
		return nil, notFound(id)
	}

	gen, cached := s.generation(ctx)
	if cached {
		if p, ok := s.cache.GetProduct(ctx, gen, id); ok {
			s.recordCount(ctx, awspkg.MetricCacheHits, "detail")
			return p, nil
		}
		s.recordCount(ctx, awspkg.MetricCacheMisses, "detail")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		s.logger.Error("Failed to get product", zap.Error(err), zap.String("product_id", id))
		return nil, apperrors.Internal("Unexpected error retrieving product", err)
	}

	if cached {
		s.cache.SetProductAsync(gen, p)
	}
	return p, nil
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		Weight:      req.Weight,
		Height:      req.Height,
		Description: req.Description,
	}

	var err error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		p.Slug = s.slugs.Generate(p.Name)
		if verr := p.Validate(); verr != nil {
			return nil, apperrors.Validation(verr.Error())
		}
		if err = s.repo.Create(ctx, p); !errors.Is(err, repository.ErrDuplicateSlug) {
			break
		}
		s.logger.Debug("Slug collision, regenerating", zap.String("slug", p.Slug))
	}
	if err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Internal("Error creating new product", err)
	}

	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("slug", p.Slug))
	s.afterWrite(ctx, EventProductCreated, awspkg.MetricProductsCreated, p.ID, p)
	return p, nil
}

// UpdateProduct merges req over the stored product and writes it back only if
// nobody else changed it in between.
func (s *productService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*models.Product, error) {
	if !validID(id) {
		return nil, notFound(id)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		s.logger.Error("Failed to load product for update", zap.Error(err), zap.String("product_id", id))
		return nil, apperrors.Internal("Error updating product", err)
	}

	merged := mergeProduct(existing, req)
	nameChanged := merged.Name != existing.Name

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if nameChanged {
			merged.Slug = s.slugs.Generate(merged.Name)
		}
		if verr := merged.Validate(); verr != nil {
			return nil, apperrors.Validation(verr.Error())
		}
		err = s.repo.Replace(ctx, merged, existing.Version)
		if !nameChanged || !errors.Is(err, repository.ErrDuplicateSlug) {
			break
		}
	}

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return nil, notFound(id)
	case errors.Is(err, repository.ErrVersionConflict):
		s.logger.Warn("Concurrent update rejected", zap.String("product_id", id), zap.Int64("expected_version", existing.Version))
		s.recordCount(ctx, awspkg.MetricUpdateConflicts, "update")
		return nil, apperrors.Conflict(fmt.Sprintf("Product with ID %s was modified concurrently, retry the update", id), err)
	default:
		s.logger.Error("Failed to update product", zap.Error(err), zap.String("product_id", id))
		return nil, apperrors.Internal("Error updating product", err)
	}

	s.logger.Info("Product updated", zap.String("product_id", id), zap.Int64("version", merged.Version))
	s.afterWrite(ctx, EventProductUpdated, awspkg.MetricProductsUpdated, id, merged)
	return merged, nil
}

func mergeProduct(existing *models.Product, req UpdateProductRequest) *models.Product {
	merged := *existing
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Brand != nil {
		merged.Brand = *req.Brand
	}
	if req.Price != nil {
		merged.Price = *req.Price
	}
	if req.Weight != nil {
		merged.Weight = req.Weight
	}
	if req.Height != nil {
		merged.Height = req.Height
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	return &merged
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound(id)
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(id)
		}
		s.logger.Error("Failed to delete product", zap.Error(err), zap.String("product_id", id))
		return apperrors.Internal("Error deleting product", err)
	}

	s.logger.Info("Product deleted", zap.String("product_id", id))
	s.afterWrite(ctx, EventProductDeleted, awspkg.MetricProductsDeleted, id, nil)
	return nil
}

// afterWrite runs the best-effort side effects of a successful write.
func (s *productService) afterWrite(ctx context.Context, eventType, metric, id string, p *models.Product) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.cacheStale.Store(true)
			s.logger.Error("Failed to invalidate product cache, bypassing it", zap.Error(err), zap.String("product_id", id))
		}
	}
	s.recordCount(ctx, metric, eventType)
	s.publishEvent(ctx, eventType, id, p)
}

func (s *productService) recordCount(ctx context.Context, metric, operation string) {
	if s.metrics == nil {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.metrics.RecordCount(bgCtx, metric, map[string]string{"Operation": operation}); err != nil {
			s.logger.Debug("Failed to record metric", zap.Error(err), zap.String("metric", metric))
		}
	}()
}
