package repositories

import (
	"context"
	"unicode/utf8"

	"productos/internal/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no product matches the lookup.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateName is returned when an insert violates the unique product name.
	ErrDuplicateName = errors.New("duplicate product name")
	// ErrInvalidData is returned when the store rejects a value that breaks a
	// column constraint, such as an over-long name or an out-of-range price.
	ErrInvalidData = errors.New("product violates a storage constraint")
)

// ProductRepository defines the interface for product data access.
// Every listing is ordered by id ascending.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	GetByNombre(ctx context.Context, nombre string) (*models.Product, error)
	ExistsByNombre(ctx context.Context, nombre string) (bool, error)
	SearchByNombre(ctx context.Context, fragment string) ([]models.Product, error)
	SearchByPrecio(ctx context.Context, min, max decimal.Decimal) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
}

// maxNombreLen mirrors the VARCHAR(255) column.
const maxNombreLen = 255

// normalize rounds the price to cents and checks the row against the
// producto schema. SQLite enforces neither the name length nor the price
// range, so every store runs it before writing.
func normalize(product *models.Product) error {
	product.Precio = models.NewPrice(product.Precio.Decimal)
	switch {
	case utf8.RuneCountInString(product.Nombre) > maxNombreLen:
		return errors.Wrapf(ErrInvalidData, "nombre longer than %d characters", maxNombreLen)
	case !product.Precio.IsPositive():
		return errors.Wrapf(ErrInvalidData, "precio %s is not positive", product.Precio)
	case product.Precio.GreaterThan(models.MaxPrice):
		return errors.Wrapf(ErrInvalidData, "precio %s exceeds %s", product.Precio, models.MaxPrice)
	}
	return nil
}
