package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config stores service settings.
type Config struct {
	Port             int
	OperationTimeout time.Duration
	DB               DB
	Storage          Storage
	Auth             Auth
	Kafka            Kafka
	RateLimit        RateLimit
	Events           Events
	Log              Log
}

// DB holds Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the postgres connection url.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     d.Host + ":" + d.Port,
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Storage selects the entity store.
type Storage struct {
	Driver      string
	AutoMigrate bool
}

// Auth configures bearer token verification.
type Auth struct {
	Secret string
	TTL    time.Duration
	// BootstrapAdminID, when set, is provisioned as an admin profile on start.
	BootstrapAdminID string
}

// Kafka configures the outbound event stream. Empty Brokers disables it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether a broker list is configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// RateLimit configures the per-actor write limiter.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Events configures in-process live event delivery.
type Events struct {
	SubscriberBuffer int
}

// Log configures the logger backend.
type Log struct {
	Backend string
	Level   string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := Default()
	if err := fromEnv(&cfg); err != nil {
		return nil, err
	}
	if err := fromFlags(&cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fromEnv(cfg *Config) error {
	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return err
	}
	if cfg.OperationTimeout, err = envDuration("OPERATION_TIMEOUT", cfg.OperationTimeout); err != nil {
		return err
	}

	cfg.DB.Host = envString("POSTGRES_HOST", cfg.DB.Host)
	cfg.DB.Port = envString("POSTGRES_PORT", cfg.DB.Port)
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		return fmt.Errorf("invalid POSTGRES_PORT %q: %w", cfg.DB.Port, err)
	}
	cfg.DB.User = envString("POSTGRES_USER", cfg.DB.User)
	cfg.DB.Pass = envString("POSTGRES_PASSWORD", cfg.DB.Pass)
	cfg.DB.Name = envString("POSTGRES_DB", cfg.DB.Name)

	cfg.Storage.Driver = envString("STORAGE_DRIVER", cfg.Storage.Driver)
	if cfg.Storage.AutoMigrate, err = envBool("STORAGE_AUTO_MIGRATE", cfg.Storage.AutoMigrate); err != nil {
		return err
	}

	cfg.Auth.Secret = envString("AUTH_SECRET", cfg.Auth.Secret)
	if cfg.Auth.TTL, err = envDuration("AUTH_TTL", cfg.Auth.TTL); err != nil {
		return err
	}
	cfg.Auth.BootstrapAdminID = envString("AUTH_BOOTSTRAP_ADMIN_ID", cfg.Auth.BootstrapAdminID)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.Topic = envString("KAFKA_TOPIC", cfg.Kafka.Topic)

	if cfg.RateLimit.Enabled, err = envBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled); err != nil {
		return err
	}
	if cfg.RateLimit.Rate, err = envFloat("RATE_LIMIT_RATE", cfg.RateLimit.Rate); err != nil {
		return err
	}
	if cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", cfg.RateLimit.Burst); err != nil {
		return err
	}
	if cfg.RateLimit.TTL, err = envDuration("RATE_LIMIT_TTL", cfg.RateLimit.TTL); err != nil {
		return err
	}
	if cfg.RateLimit.MaxBuckets, err = envInt("RATE_LIMIT_MAX_BUCKETS", cfg.RateLimit.MaxBuckets); err != nil {
		return err
	}

	if cfg.Events.SubscriberBuffer, err = envInt("EVENTS_SUBSCRIBER_BUFFER", cfg.Events.SubscriberBuffer); err != nil {
		return err
	}

	cfg.Log.Backend = envString("LOG_BACKEND", cfg.Log.Backend)
	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
	return nil
}

func fromFlags(cfg *Config, args []string) error {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	fs.StringVar(&cfg.Storage.Driver, "storage", cfg.Storage.Driver, "entity store driver (postgres|memory)")
	fs.BoolVar(&cfg.Storage.AutoMigrate, "migrate", cfg.Storage.AutoMigrate, "apply migrations on start")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.Secret == "" {
		return errors.New("AUTH_SECRET must not be empty")
	}
	if c.Auth.BootstrapAdminID != "" {
		if _, err := uuid.Parse(c.Auth.BootstrapAdminID); err != nil {
			return fmt.Errorf("invalid AUTH_BOOTSTRAP_ADMIN_ID %q: %w", c.Auth.BootstrapAdminID, err)
		}
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC must be set when KAFKA_BROKERS is")
	}
	if c.Events.SubscriberBuffer <= 0 {
		return fmt.Errorf("invalid EVENTS_SUBSCRIBER_BUFFER: %d", c.Events.SubscriberBuffer)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("invalid OPERATION_TIMEOUT: %s", c.OperationTimeout)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
