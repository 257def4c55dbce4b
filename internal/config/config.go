package config

import (
	"fmt"
	"time"

	"github.com/playforge/gamestore/pkg/config"
	"github.com/playforge/gamestore/pkg/database"
)

// Config is the full environment-driven service configuration.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"gamestore"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Postgres      PostgresConfig      `envPrefix:"POSTGRES_"`
	Elasticsearch ElasticsearchConfig `envPrefix:"ELASTICSEARCH_"`
	Kafka         KafkaConfig         `envPrefix:"KAFKA_"`
}

type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"gamestore"`
	Password string `env:"PASSWORD" envDefault:"gamestore_secret"`
	DBName   string `env:"DB" envDefault:"gamestore"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type ElasticsearchConfig struct {
	URL   string `env:"URL" envDefault:"http://localhost:9200"`
	Index string `env:"INDEX" envDefault:"gamestore_games"`
}

type KafkaConfig struct {
	Brokers       []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	ConsumerGroup string   `env:"CONSUMER_GROUP" envDefault:"gamestore-fulfillment"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP port %d", c.HTTPPort)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: at least one Kafka broker is required")
	}
	if c.Elasticsearch.URL == "" {
		return fmt.Errorf("config: Elasticsearch URL is required")
	}
	return nil
}

// PostgresPoolConfig maps the env-driven values onto the pool configuration,
// keeping the pool sizing defaults.
func (c *Config) PostgresPoolConfig() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.Postgres.Host
	pg.Port = c.Postgres.Port
	pg.User = c.Postgres.User
	pg.Password = c.Postgres.Password
	pg.DBName = c.Postgres.DBName
	pg.SSLMode = c.Postgres.SSLMode
	return pg
}
