package repositories

import (
	"context"
	"strings"

	"productos/internal/models"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation         = "23505"
	pgClassDataException      = "22"
	pgClassIntegrityViolation = "23"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get all products")
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get product by ID %d", id)
	}
	return &product, nil
}

// GetByNombre retrieves the product with exactly the given name.
func (r *GORMProductRepository) GetByNombre(ctx context.Context, nombre string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "nombre = ?", nombre).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to get product by name %q", nombre)
	}
	return &product, nil
}

// ExistsByNombre reports whether a product with exactly the given name exists.
func (r *GORMProductRepository) ExistsByNombre(ctx context.Context, nombre string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("nombre = ?", nombre).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "failed to check product name %q", nombre)
	}
	return count > 0, nil
}

// SearchByNombre returns the products whose name contains fragment. Matching is
// a case-sensitive literal substring test; LIKE wildcards in fragment carry no
// special meaning.
func (r *GORMProductRepository) SearchByNombre(ctx context.Context, fragment string) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Where(r.containsExpr(), fragment).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search products by name %q", fragment)
	}
	return products, nil
}

// SearchByPrecio returns the products with min <= precio <= max.
func (r *GORMProductRepository) SearchByPrecio(ctx context.Context, min, max decimal.Decimal) ([]models.Product, error) {
	products := []models.Product{}
	lo, hi, ok := models.PriceRange(min, max)
	if !ok {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Where("precio BETWEEN ? AND ?", lo, hi).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search products by price %s-%s", min, max)
	}
	return products, nil
}

// Create inserts a new product; the database assigns its ID. The price is
// rounded to cents first so product holds exactly what was stored.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := normalize(product); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// translateWriteError maps constraint failures to sentinels. Anything else is
// treated as a store failure.
func translateWriteError(err error) error {
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return errors.Wrapf(ErrInvalidData, "%v", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (strings.HasPrefix(pgErr.Code, pgClassDataException) || strings.HasPrefix(pgErr.Code, pgClassIntegrityViolation)) {
		return errors.Wrapf(ErrInvalidData, "%s (SQLSTATE %s)", pgErr.Message, pgErr.Code)
	}
	return errors.Wrap(err, "failed to create product")
}

func (r *GORMProductRepository) containsExpr() string {
	if r.db.Dialector.Name() == "sqlite" {
		return "instr(nombre, ?) > 0"
	}
	return "strpos(nombre, ?) > 0"
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
