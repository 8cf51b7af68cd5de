package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"productos/internal/config"
	"productos/internal/database"
	"productos/internal/handlers"
	"productos/internal/repositories"
	"productos/internal/services"
	"productos/pkg/logger"
	"productos/pkg/rabbitmq"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()
	logger.Init(logger.Options{Production: cfg.Environment == config.Production})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize Repository ---
	productRepo, pinger, closeDB, err := openRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to initialize product repository")
	}
	defer closeDB()

	// --- Initialize RabbitMQ Client ---
	var publisher services.ProductEventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Error().Err(err).Msg("RabbitMQ unavailable, product events disabled")
		} else {
			defer mqClient.Close()
			publisher = mqClient

			if cfg.RabbitMQConsume {
				if err := mqClient.ConsumeProductEvents(logProductEvent); err != nil {
					log.Error().Err(err).Msg("failed to start product events consumer")
				}
			}
		}
	}

	// --- Initialize Services ---
	guard := services.NewPersistenceGuard(cfg.Resilience)
	productService := services.NewProductService(productRepo, guard, publisher)

	if cfg.SeedData {
		seedProducts(ctx, productService)
	}

	app := newApp(cfg, productService, pinger)

	// --- Start HTTP Server ---
	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", string(cfg.Environment)).Msg("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during fiber shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}

// openRepository selects the product store named by the configuration. The
// returned pinger is nil for the in-memory store.
func openRepository(ctx context.Context, cfg config.Config) (repositories.ProductRepository, handlers.Pinger, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		return repositories.NewMemoryProductRepository(), nil, func() {}, nil
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "get sql handle")
	}
	closeDB := func() {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DBDriver, cfg.DatabaseDSN); err != nil {
			closeDB()
			return nil, nil, nil, errors.Wrap(err, "migrate")
		}
	}

	return repositories.NewGORMProductRepository(db), sqlDB, closeDB, nil
}

// logProductEvent is the consumer side of the product events queue. Messages
// that cannot be decoded are dropped rather than requeued forever.
func logProductEvent(msg amqp.Delivery) error {
	var event services.ProductCreatedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Warn().Err(err).Uint64("delivery_tag", msg.DeliveryTag).Msg("dropping undecodable product event")
		return nil
	}
	log.Info().
		Str("type", msg.Type).
		Int64("id", event.ID).
		Str("nombre", event.Nombre).
		Str("precio", event.Precio.String()).
		Msg("product event received")
	return nil
}

// seedProducts creates a few sample products, skipping names already taken.
func seedProducts(ctx context.Context, service *services.ProductService) {
	samples := []struct {
		nombre      string
		precio      string
		descripcion string
	}{
		{"Laptop", "1200.00", "Laptop de alto rendimiento"},
		{"Teclado", "75.00", "Teclado mecánico"},
		{"Mouse", "25.00", "Mouse inalámbrico ergonómico"},
	}

	for _, s := range samples {
		desc := s.descripcion
		product, err := service.CreateProduct(ctx, s.nombre, decimal.RequireFromString(s.precio), &desc)
		if err != nil {
			var conflict *services.ConflictError
			if errors.As(err, &conflict) {
				continue
			}
			log.Error().Err(err).Str("nombre", s.nombre).Msg("error seeding product")
			continue
		}
		log.Info().Int64("id", product.ID).Str("nombre", product.Nombre).Msg("seeded product")
	}
}
