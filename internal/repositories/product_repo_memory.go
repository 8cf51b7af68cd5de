package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"

	"productos/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// It enforces the same constraints as the Postgres schema.
type MemoryProductRepository struct {
	products map[int64]models.Product
	byName   map[string]int64
	nextID   int64
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]models.Product),
		byName:   make(map[string]int64),
	}
}

// GetAll returns all products.
func (r *MemoryProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(models.Product) bool { return true }), nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// GetByNombre returns the product with exactly the given name.
func (r *MemoryProductRepository) GetByNombre(_ context.Context, nombre string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[nombre]
	if !ok {
		return nil, ErrNotFound
	}
	product := r.products[id]
	return &product, nil
}

// ExistsByNombre reports whether a product with exactly the given name exists.
func (r *MemoryProductRepository) ExistsByNombre(_ context.Context, nombre string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[nombre]
	return ok, nil
}

// SearchByNombre returns products whose name contains fragment (case-sensitive).
func (r *MemoryProductRepository) SearchByNombre(_ context.Context, fragment string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(p models.Product) bool {
		return strings.Contains(p.Nombre, fragment)
	}), nil
}

// SearchByPrecio returns products with min <= precio <= max.
func (r *MemoryProductRepository) SearchByPrecio(_ context.Context, min, max decimal.Decimal) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(p models.Product) bool {
		return p.Precio.GreaterThanOrEqual(min) && p.Precio.LessThanOrEqual(max)
	}), nil
}

// Create adds a new product and assigns the next ID.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[product.Nombre]; ok {
		return ErrDuplicateName
	}
	if err := normalize(product); err != nil {
		return err
	}
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = *product
	r.byName[product.Nombre] = product.ID
	return nil
}

// filter must be called with the read lock held.
func (r *MemoryProductRepository) filter(keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
