package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	SequenceStore = "store"
	SequenceRedis = "redis"

	PolicyLenient = "lenient"
	PolicyStrict  = "strict"

	ModePerLine      = "per_line"
	ModeAllOrNothing = "all_or_nothing"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"supar-admin-backend"`
	Env         string `envconfig:"ENV" default:"dev"`
	Port        string `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE"`

	Store       string `envconfig:"STORE" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	InvoiceSequence    string `envconfig:"INVOICE_SEQUENCE" default:"store"`
	RedisURL           string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	InvoiceStart       int64  `envconfig:"INVOICE_START" default:"10000"`
	InvoiceMaxAttempts int    `envconfig:"INVOICE_MAX_ATTEMPTS" default:"5"`

	ReservationPolicy string `envconfig:"RESERVATION_POLICY" default:"lenient"`
	ReservationMode   string `envconfig:"RESERVATION_MODE" default:"per_line"`

	DBTimeout           time.Duration `envconfig:"DB_TIMEOUT" default:"3s"`
	GatewayTimeout      time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	NotificationTimeout time.Duration `envconfig:"NOTIFICATION_TIMEOUT" default:"15s"`
	ShutdownTimeout     time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	NotificationTopic string   `envconfig:"NOTIFICATION_TOPIC" default:"order-confirmations"`

	Payment
	Merchant
}

type Payment struct {
	Currency    string `envconfig:"STORE_CURRENCY" default:"INR"`
	MinAmount   int64  `envconfig:"MIN_AMOUNT" default:"50"`
	MaxAmount   int64  `envconfig:"MAX_AMOUNT" default:"100000"`
	Description string `envconfig:"PAYMENT_DESCRIPTION" default:"Order payment"`
}

// Merchant holds the storefront identity used on order confirmations.
type Merchant struct {
	Company   string `envconfig:"MERCHANT_COMPANY" default:"AR Lashes"`
	Email     string `envconfig:"MERCHANT_EMAIL"`
	FromEmail string `envconfig:"MERCHANT_FROM_EMAIL"`
	Address   string `envconfig:"MERCHANT_ADDRESS"`
	Phone     string `envconfig:"MERCHANT_PHONE"`
	Website   string `envconfig:"MERCHANT_WEBSITE"`
	VATNumber string `envconfig:"MERCHANT_VAT_NUMBER"`
	Currency  string `envconfig:"MERCHANT_CURRENCY" default:"INR"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	if c.InvoiceSequence != SequenceStore && c.InvoiceSequence != SequenceRedis {
		return fmt.Errorf("config: unknown INVOICE_SEQUENCE %q", c.InvoiceSequence)
	}
	if c.ReservationPolicy != PolicyLenient && c.ReservationPolicy != PolicyStrict {
		return fmt.Errorf("config: unknown RESERVATION_POLICY %q", c.ReservationPolicy)
	}
	if c.ReservationMode != ModePerLine && c.ReservationMode != ModeAllOrNothing {
		return fmt.Errorf("config: unknown RESERVATION_MODE %q", c.ReservationMode)
	}
	if c.InvoiceStart <= 0 {
		return errors.New("config: INVOICE_START must be positive")
	}
	if c.InvoiceMaxAttempts < 1 {
		return errors.New("config: INVOICE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Payment.MinAmount <= 0 || c.Payment.MaxAmount < c.Payment.MinAmount {
		return fmt.Errorf("config: invalid payment bounds [%d, %d]", c.Payment.MinAmount, c.Payment.MaxAmount)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
