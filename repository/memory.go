package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/olaysco/ecomm-api/models"
)

// MemoryRepository keeps products in process memory. It backs
// DB_DRIVER=memory for local runs and the end-to-end tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*models.Product
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*models.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func clone(p *models.Product) *models.Product {
	c := *p
	if p.Weight != nil {
		w := *p.Weight
		c.Weight = &w
	}
	if p.Height != nil {
		h := *p.Height
		c.Height = &h
	}
	return &c
}

func (m *MemoryRepository) Find(_ context.Context, filter ProductFilter, opts FindOptions) ([]*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Product
	for _, p := range m.products {
		if matches(p, filter) {
			out = append(out, clone(p))
		}
	}
	sortProducts(out, opts.Sort)
	return page(out, opts.Skip, opts.Limit), nil
}

func (m *MemoryRepository) Count(_ context.Context, filter ProductFilter) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, p := range m.products {
		if matches(p, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

func (m *MemoryRepository) Create(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if strings.EqualFold(p.Slug, product.Slug) {
			return ErrDuplicateSlug
		}
	}

	now := m.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.Version = 1
	product.IsDeleted = false
	m.products[product.ID] = clone(product)
	return nil
}

func (m *MemoryRepository) Replace(_ context.Context, product *models.Product, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.products[product.ID]
	if !ok || current.IsDeleted {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	for id, p := range m.products {
		if id != product.ID && strings.EqualFold(p.Slug, product.Slug) {
			return ErrDuplicateSlug
		}
	}

	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = m.now()
	product.Version = expectedVersion + 1
	product.IsDeleted = false
	m.products[product.ID] = clone(product)
	return nil
}

func (m *MemoryRepository) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok || p.IsDeleted {
		return ErrNotFound
	}
	p.IsDeleted = true
	p.UpdatedAt = m.now()
	p.Version++
	return nil
}

func (m *MemoryRepository) EnsureIndexes(context.Context) error { return nil }

func (m *MemoryRepository) Put(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = clone(product)
	return nil
}
