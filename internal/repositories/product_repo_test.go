package repositories_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"productos/internal/config"
	"productos/internal/database"
	"productos/internal/models"
	"productos/internal/repositories"
	"productos/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepo(t *testing.T) repositories.ProductRepository {
	t.Helper()
	logger.Discard()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite, dsn))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return repositories.NewGORMProductRepository(db)
}

func newPostgresRepo(t *testing.T) repositories.ProductRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	logger.Discard()

	db, err := database.Open(config.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, config.DriverPostgres, dsn))
	require.NoError(t, db.Exec("TRUNCATE producto RESTART IDENTITY").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return repositories.NewGORMProductRepository(db)
}

func TestProductRepositories(t *testing.T) {
	factories := map[string]func(t *testing.T) repositories.ProductRepository{
		"memory": func(*testing.T) repositories.ProductRepository {
			return repositories.NewMemoryProductRepository()
		},
		"sqlite":   newSQLiteRepo,
		"postgres": newPostgresRepo,
	}

	for name, newRepo := range factories {
		t.Run(name, func(t *testing.T) {
			runRepositoryContract(t, newRepo)
		})
	}
}

func seed(t *testing.T, repo repositories.ProductRepository, items ...models.Product) []models.Product {
	t.Helper()
	out := make([]models.Product, 0, len(items))
	for i := range items {
		p := items[i]
		require.NoError(t, repo.Create(context.Background(), &p))
		out = append(out, p)
	}
	return out
}

func product(nombre, precio string) models.Product {
	return models.Product{Nombre: nombre, Precio: models.RequirePrice(precio)}
}

func nombres(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Nombre)
	}
	return out
}

func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) repositories.ProductRepository) {
	ctx := context.Background()

	t.Run("CreateAndGetByID", func(t *testing.T) {
		repo := newRepo(t)
		desc := "Laptop para desarrollo"
		p := models.Product{Nombre: "Laptop Dell", Precio: models.RequirePrice("1299.99"), Descripcion: &desc}

		require.NoError(t, repo.Create(ctx, &p))
		assert.NotZero(t, p.ID)

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Laptop Dell", got.Nombre)
		assert.True(t, decimal.RequireFromString("1299.99").Equal(got.Precio.Decimal), "precio %s", got.Precio)
		require.NotNil(t, got.Descripcion)
		assert.Equal(t, desc, *got.Descripcion)
	})

	t.Run("NullDescription", func(t *testing.T) {
		repo := newRepo(t)
		created := seed(t, repo, product("Mouse", "25.50"))

		got, err := repo.GetByID(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Nil(t, got.Descripcion)
	})

	t.Run("GetByIDNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("GetByNombre", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo, product("Mouse", "25.50"))

		got, err := repo.GetByNombre(ctx, "Mouse")
		require.NoError(t, err)
		assert.Equal(t, "Mouse", got.Nombre)

		_, err = repo.GetByNombre(ctx, "mouse")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("ExistsByNombre", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo, product("Mouse", "25.50"))

		exists, err := repo.ExistsByNombre(ctx, "Mouse")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByNombre(ctx, "Teclado")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo, product("Mouse", "25.50"))

		dup := product("Mouse", "30.00")
		err := repo.Create(ctx, &dup)
		assert.ErrorIs(t, err, repositories.ErrDuplicateName)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("GetAllOrderedByID", func(t *testing.T) {
		repo := newRepo(t)

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		created := seed(t, repo, product("C", "3.00"), product("A", "1.00"), product("B", "2.00"))
		all, err = repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i := range created {
			assert.Equal(t, created[i].ID, all[i].ID)
		}
		assert.Equal(t, []string{"C", "A", "B"}, nombres(all))
	})

	t.Run("SearchByNombre", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo,
			product("Laptop Dell", "1299.99"),
			product("Monitor Dell", "300.00"),
			product("Mouse", "25.50"),
			product("100% Algodón", "10.00"),
		)

		found, err := repo.SearchByNombre(ctx, "Dell")
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop Dell", "Monitor Dell"}, nombres(found))

		found, err = repo.SearchByNombre(ctx, "dell")
		require.NoError(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)

		found, err = repo.SearchByNombre(ctx, "%")
		require.NoError(t, err)
		assert.Equal(t, []string{"100% Algodón"}, nombres(found))

		found, err = repo.SearchByNombre(ctx, "_")
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = repo.SearchByNombre(ctx, "Inexistente")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("SearchByPrecio", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo,
			product("Barato", "10.00"),
			product("Medio", "25.50"),
			product("Caro", "1500.00"),
		)

		found, err := repo.SearchByPrecio(ctx, decimal.RequireFromString("10.00"), decimal.RequireFromString("25.50"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Barato", "Medio"}, nombres(found), "bounds are inclusive")

		found, err = repo.SearchByPrecio(ctx, decimal.RequireFromString("20"), decimal.RequireFromString("2000"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Medio", "Caro"}, nombres(found))

		found, err = repo.SearchByPrecio(ctx, decimal.RequireFromString("100"), decimal.RequireFromString("10"))
		require.NoError(t, err)
		assert.Empty(t, found, "min greater than max matches nothing")
	})

	t.Run("ExactPrecision", func(t *testing.T) {
		repo := newRepo(t)
		created := seed(t, repo, product("Servidor", "12345678901234567.89"))

		got, err := repo.GetByID(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "12345678901234567.89", got.Precio.StringFixed(models.PriceScale))

		found, err := repo.SearchByPrecio(ctx,
			decimal.RequireFromString("12345678901234567.90"),
			decimal.RequireFromString("12345678901234567.95"))
		require.NoError(t, err)
		assert.Empty(t, found, "one cent above the stored price")

		found, err = repo.SearchByPrecio(ctx,
			decimal.RequireFromString("12345678901234567.89"),
			decimal.RequireFromString("12345678901234567.89"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Servidor"}, nombres(found))
	})

	t.Run("OrdersPricesNumerically", func(t *testing.T) {
		repo := newRepo(t)
		seed(t, repo,
			product("Nueve", "9.99"),
			product("Diez", "10.00"),
			product("Cien", "100.00"),
		)

		found, err := repo.SearchByPrecio(ctx, decimal.RequireFromString("9.995"), decimal.RequireFromString("99.999"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Diez"}, nombres(found), "sub-cent bounds move inward")

		found, err = repo.SearchByPrecio(ctx, decimal.RequireFromString("-5"), decimal.RequireFromString("10"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Nueve", "Diez"}, nombres(found))

		found, err = repo.SearchByPrecio(ctx, decimal.RequireFromString("10.001"), decimal.RequireFromString("10.009"))
		require.NoError(t, err)
		assert.Empty(t, found, "no whole cent inside the range")
	})

	t.Run("RoundsToCents", func(t *testing.T) {
		repo := newRepo(t)
		p := models.Product{Nombre: "Cable", Precio: models.Price{Decimal: decimal.RequireFromString("1.005")}}
		require.NoError(t, repo.Create(ctx, &p))
		assert.Equal(t, "1.01", p.Precio.String(), "returned row matches the stored one")

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, p.Precio.Equal(got.Precio.Decimal), "stored %s, returned %s", got.Precio, p.Precio)
	})

	t.Run("RejectsInvalidData", func(t *testing.T) {
		repo := newRepo(t)
		tests := map[string]models.Product{
			"name too long":  product(strings.Repeat("ñ", 256), "10.00"),
			"price too high": product("Caro", "100000000000000000.00"),
			"zero price":     product("Gratis", "0.004"),
		}
		for name, p := range tests {
			p := p
			err := repo.Create(ctx, &p)
			assert.ErrorIs(t, err, repositories.ErrInvalidData, name)
		}

		ok := product(strings.Repeat("ñ", 255), "99999999999999999.99")
		require.NoError(t, repo.Create(ctx, &ok))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
