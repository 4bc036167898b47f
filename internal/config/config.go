package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values, populated from
// environment variables.
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	CORSOrigins     []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:3001"`
	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL        time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	CheckoutRetries int           `envconfig:"CHECKOUT_RETRIES" default:"3"`
	Database        DatabaseConfig
}

// DatabaseConfig holds PostgreSQL connection details.
type DatabaseConfig struct {
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       string `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"pos_user"`
	Password   string `envconfig:"DB_PASSWORD" default:"pos_password"`
	Name       string `envconfig:"DB_NAME" default:"retail_pos_db"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SchemaPath string `envconfig:"DB_SCHEMA_PATH" default:""`
}

// DSN constructs the connection string for lib/pq.
func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dc.Host, dc.Port, dc.User, dc.Password, dc.Name, dc.SSLMode)
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
