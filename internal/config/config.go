package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Log      LogConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// StorageConfig selects the persistence adapter: "mysql" or "memory".
// SeedFile, when set, is a JSON array of restaurants upserted at startup.
type StorageConfig struct {
	Driver   string
	SeedFile string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	Producer string
}

type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

type LogConfig struct {
	Level       string
	Development bool
}

type OrderConfig struct {
	MaxRetryAttempts    int
	RetryBaseDelay      time.Duration
	NotificationTimeout time.Duration
	IdempotencyTTL      time.Duration
}

// Load reads the optional YAML file at path and lets environment variables
// override any key: server.port becomes SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.driver", "mysql")
	v.SetDefault("storage.seed_file", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "surplus")
	v.SetDefault("db.password", "secret")
	v.SetDefault("db.name", "surplus")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "orders.events")
	v.SetDefault("kafka.producer", "surplus-api")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "surplus")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("order.max_retry_attempts", 5)
	v.SetDefault("order.retry_base_delay", "20ms")
	v.SetDefault("order.notification_timeout", "5s")
	v.SetDefault("order.idempotency_ttl", "24h")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Storage: StorageConfig{
			Driver:   v.GetString("storage.driver"),
			SeedFile: v.GetString("storage.seed_file"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("db.host"),
			Port:            v.GetInt("db.port"),
			User:            v.GetString("db.user"),
			Password:        v.GetString("db.password"),
			Name:            v.GetString("db.name"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Enabled:  v.GetBool("kafka.enabled"),
			Brokers:  splitList(v.GetStringSlice("kafka.brokers")),
			Topic:    v.GetString("kafka.topic"),
			Producer: v.GetString("kafka.producer"),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("tracing.endpoint"),
			Insecure:    v.GetBool("tracing.insecure"),
			ServiceName: v.GetString("tracing.service_name"),
			SampleRatio: v.GetFloat64("tracing.sample_ratio"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Order: OrderConfig{
			MaxRetryAttempts:    v.GetInt("order.max_retry_attempts"),
			RetryBaseDelay:      v.GetDuration("order.retry_base_delay"),
			NotificationTimeout: v.GetDuration("order.notification_timeout"),
			IdempotencyTTL:      v.GetDuration("order.idempotency_ttl"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Order.MaxRetryAttempts < 1 {
		return fmt.Errorf("order.max_retry_attempts must be at least 1")
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
