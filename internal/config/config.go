package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment represents the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

// ParseEnvironment normalises the provided value into one of the known environments.
// Unknown values fall back to Development.
func ParseEnvironment(v string) Environment {
	switch Environment(v) {
	case Production:
		return Production
	case Testing:
		return Testing
	default:
		return Development
	}
}

// Database drivers understood by the database package.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	Environment     Environment
	AppPort         string
	APIVersion      string
	ShutdownTimeout time.Duration

	APIKey       string
	APIKeyHeader string
	AuthRequired bool

	DBDriver      string
	DatabaseDSN   string
	DBAutoMigrate bool
	SeedData      bool

	RabbitMQURL     string
	RabbitMQConsume bool

	Resilience ResilienceConfig
}

// ResilienceConfig controls the retry and circuit breaker policy applied to
// persistence calls.
type ResilienceConfig struct {
	MaxRetries          uint64
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// Default returns the configuration built from defaults only.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	return FromViper(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", string(Development))
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_VERSION", "1.0.0")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("API_KEY", "")
	v.SetDefault("API_KEY_HEADER", "X-API-Key")
	v.SetDefault("AUTH_REQUIRED", true)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=productos port=5432 sslmode=disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("SEED_DATA", false)

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_CONSUME", false)

	v.SetDefault("RETRY_MAX_RETRIES", 3)
	v.SetDefault("RETRY_INITIAL_INTERVAL", "100ms")
	v.SetDefault("RETRY_MAX_INTERVAL", "1s")
	v.SetDefault("BREAKER_FAILURE_RATIO", 0.5)
	v.SetDefault("BREAKER_MIN_REQUESTS", 10)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", "30s")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		Environment:     ParseEnvironment(v.GetString("APP_ENV")),
		AppPort:         v.GetString("APP_PORT"),
		APIVersion:      v.GetString("API_VERSION"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		APIKey:       v.GetString("API_KEY"),
		APIKeyHeader: v.GetString("API_KEY_HEADER"),
		AuthRequired: v.GetBool("AUTH_REQUIRED"),

		DBDriver:      v.GetString("DB_DRIVER"),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		DBAutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		SeedData:      v.GetBool("SEED_DATA"),

		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RabbitMQConsume: v.GetBool("RABBITMQ_CONSUME"),

		Resilience: ResilienceConfig{
			MaxRetries:          v.GetUint64("RETRY_MAX_RETRIES"),
			InitialInterval:     v.GetDuration("RETRY_INITIAL_INTERVAL"),
			MaxInterval:         v.GetDuration("RETRY_MAX_INTERVAL"),
			BreakerFailureRatio: v.GetFloat64("BREAKER_FAILURE_RATIO"),
			BreakerMinRequests:  v.GetUint32("BREAKER_MIN_REQUESTS"),
			BreakerOpenTimeout:  v.GetDuration("BREAKER_OPEN_TIMEOUT"),
		},
	}
}
