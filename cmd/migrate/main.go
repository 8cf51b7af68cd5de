// Command migrate applies or reverts the embedded Postgres migrations.
//
//	migrate            apply every pending migration
//	migrate -down 1    revert the last migration
//	migrate -version   print the applied version
package main

import (
	"context"
	"flag"
	"time"

	"productos/internal/config"
	"productos/internal/database"
	"productos/pkg/logger"

	"github.com/rs/zerolog/log"
)

func main() {
	down := flag.Int("down", 0, "number of migrations to revert")
	showVersion := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Options{Production: cfg.Environment == config.Production})

	if cfg.DBDriver != config.DriverPostgres {
		log.Fatal().Str("driver", cfg.DBDriver).Msg("migrations only run against postgres")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch {
	case *showVersion:
		version, dirty, err := database.Version(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("read schema version")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
	case *down > 0:
		if err := database.Rollback(ctx, cfg.DatabaseDSN, *down); err != nil {
			log.Fatal().Err(err).Msg("revert migrations")
		}
		log.Info().Int("steps", *down).Msg("migrations reverted")
	default:
		if err := database.Migrate(ctx, nil, cfg.DBDriver, cfg.DatabaseDSN); err != nil {
			log.Fatal().Err(err).Msg("apply migrations")
		}
		log.Info().Msg("migrations applied")
	}
}
