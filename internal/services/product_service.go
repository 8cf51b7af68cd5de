package services

import (
	"context"
	"time"

	"productos/internal/config"
	"productos/internal/models"
	"productos/internal/repositories"
	"productos/internal/resilience"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ConflictError is returned when a product with the same name already exists.
type ConflictError struct {
	Nombre string
}

func (e *ConflictError) Error() string {
	return "Ya existe un producto con el nombre: " + e.Nombre
}

// ErrInvalidProduct is returned when the store rejects a product that
// violates one of its constraints, such as column length or numeric range.
var ErrInvalidProduct = repositories.ErrInvalidData

// ProductEventPublisher publishes product lifecycle events.
type ProductEventPublisher interface {
	PublishProductCreated(event interface{}) error
}

// ProductCreatedEvent is the payload published after a successful create.
type ProductCreatedEvent struct {
	Event     string          `json:"event"`
	ID        int64           `json:"id"`
	Nombre    string          `json:"nombre"`
	Precio    decimal.Decimal `json:"precio"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	guard     *resilience.Guard
	publisher ProductEventPublisher
}

// NewProductService creates a new ProductService. A nil guard uses the default
// resilience settings; a nil publisher disables events.
func NewProductService(repo repositories.ProductRepository, guard *resilience.Guard, publisher ProductEventPublisher) *ProductService {
	if guard == nil {
		guard = NewPersistenceGuard(config.Default().Resilience)
	}
	return &ProductService{
		repo:      repo,
		guard:     guard,
		publisher: publisher,
	}
}

// NewPersistenceGuard builds the retry/circuit breaker guard used around every
// repository call. Conflicts, missing rows and rejected data are outcomes,
// not failures: they are never retried and never open the breaker.
func NewPersistenceGuard(cfg config.ResilienceConfig) *resilience.Guard {
	return resilience.New(resilience.Settings{
		Name:            "productos-db",
		MaxRetries:      cfg.MaxRetries,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		FailureRatio:    cfg.BreakerFailureRatio,
		MinRequests:     cfg.BreakerMinRequests,
		OpenTimeout:     cfg.BreakerOpenTimeout,
		IsPermanent:     isExpectedOutcome,
	})
}

func isExpectedOutcome(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict) ||
		errors.Is(err, repositories.ErrNotFound) ||
		errors.Is(err, repositories.ErrDuplicateName) ||
		errors.Is(err, repositories.ErrInvalidData)
}

// CreateProduct creates a product after checking that its name is free. The
// unique index on nombre catches concurrent creators that pass the check
// together; both paths yield a *ConflictError. The price is rounded to cents
// before it is stored, so the returned product matches the stored row.
func (s *ProductService) CreateProduct(ctx context.Context, nombre string, precio decimal.Decimal, descripcion *string) (*models.Product, error) {
	log.Ctx(ctx).Info().Str("nombre", nombre).Msg("creating product")

	product := &models.Product{
		Nombre:      nombre,
		Precio:      models.NewPrice(precio),
		Descripcion: descripcion,
	}

	err := s.guard.Execute(ctx, "create_product", func(ctx context.Context) error {
		exists, err := s.repo.ExistsByNombre(ctx, nombre)
		if err != nil {
			return err
		}
		if exists {
			return &ConflictError{Nombre: nombre}
		}

		product.ID = 0
		if err := s.repo.Create(ctx, product); err != nil {
			if errors.Is(err, repositories.ErrDuplicateName) {
				return &ConflictError{Nombre: nombre}
			}
			return err
		}
		return nil
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			log.Ctx(ctx).Warn().Str("nombre", nombre).Msg("product name already exists")
			return nil, err
		}
		if errors.Is(err, ErrInvalidProduct) {
			log.Ctx(ctx).Warn().Err(err).Str("nombre", nombre).Msg("product rejected by store")
		}
		return nil, errors.Wrap(err, "create product")
	}

	log.Ctx(ctx).Info().Int64("id", product.ID).Msg("product created")
	s.publishCreated(ctx, *product)
	return product, nil
}

func (s *ProductService) publishCreated(ctx context.Context, p models.Product) {
	if s.publisher == nil {
		return
	}
	event := ProductCreatedEvent{
		Event:     "producto.creado",
		ID:        p.ID,
		Nombre:    p.Nombre,
		Precio:    p.Precio.Decimal,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishProductCreated(event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("id", p.ID).Msg("failed to publish product created event")
	}
}

// GetProductByID retrieves a product by ID. A missing product is reported
// through found, not as an error.
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (product *models.Product, found bool, err error) {
	product, err = resilience.Do(ctx, s.guard, "get_product", func(ctx context.Context) (*models.Product, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Ctx(ctx).Warn().Int64("id", id).Msg("product not found")
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get product %d", id)
	}
	return product, true, nil
}

// GetProductByName retrieves the product with exactly the given name.
func (s *ProductService) GetProductByName(ctx context.Context, nombre string) (product *models.Product, found bool, err error) {
	product, err = resilience.Do(ctx, s.guard, "get_product_by_name", func(ctx context.Context) (*models.Product, error) {
		return s.repo.GetByNombre(ctx, nombre)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get product by name %q", nombre)
	}
	return product, true, nil
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := resilience.Do(ctx, s.guard, "list_products", s.repo.GetAll)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	log.Ctx(ctx).Info().Int("count", len(products)).Msg("listed products")
	return products, nil
}

// SearchProductsByName returns the products whose name contains fragment.
func (s *ProductService) SearchProductsByName(ctx context.Context, fragment string) ([]models.Product, error) {
	products, err := resilience.Do(ctx, s.guard, "search_products_by_name", func(ctx context.Context) ([]models.Product, error) {
		return s.repo.SearchByNombre(ctx, fragment)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search products by name %q", fragment)
	}
	log.Ctx(ctx).Info().Str("fragment", fragment).Int("count", len(products)).Msg("searched products by name")
	return products, nil
}

// SearchProductsByPrice returns the products priced within [min, max].
func (s *ProductService) SearchProductsByPrice(ctx context.Context, min, max decimal.Decimal) ([]models.Product, error) {
	products, err := resilience.Do(ctx, s.guard, "search_products_by_price", func(ctx context.Context) ([]models.Product, error) {
		return s.repo.SearchByPrecio(ctx, min, max)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "search products by price %s-%s", min, max)
	}
	log.Ctx(ctx).Info().
		Stringer("min", min).
		Stringer("max", max).
		Int("count", len(products)).
		Msg("searched products by price")
	return products, nil
}
