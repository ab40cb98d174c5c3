package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory keeps every store in process memory and runs the workers
	// inside the api process. Nothing survives a restart.
	DriverMemory = "memory"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	LogFormat   string
	LogLevel    string

	DatabaseDriver string
	DatabaseDSN    string
	SeedFile       string
	SeedOnStart    bool

	VotePriceMinor int64
	VoteCurrency   string

	PendingVoteTTL     time.Duration
	ReconcileMinAge    time.Duration
	VerifyTimeout      time.Duration
	StoreTimeout       time.Duration
	IdempotencyTTL     time.Duration
	CountCacheTTL      time.Duration
	WorkerPollInterval time.Duration
	AuditInterval      time.Duration
	EventBusBuffer     int
	WorkerMetricsPort  string

	PaystackMock        bool
	PaystackBaseURL     string
	PaystackSecretKey   string
	PaystackCallbackURL string
	PaystackRetryMax    int

	EnableReconciler bool
	EnableAuditor    bool
}

// Load reads the process environment. A .env file in the working directory
// is applied first when present; real environment variables win.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "paidvote"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_DRIVER")))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be one of %q, %q, %q, got %q",
			DriverPostgres, DriverSQLite, DriverMemory, driver)
	}
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	}

	currency := strings.ToUpper(strings.TrimSpace(os.Getenv("VOTE_CURRENCY")))
	if currency == "" {
		currency = "GHS"
	}
	priceMinor, err := ParsePriceMinor(envString("VOTE_PRICE", "1.00"))
	if err != nil {
		return Config{}, err
	}

	pendingTTL, err := envDuration("PENDING_VOTE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	reconcileMinAge, err := envDuration("RECONCILE_MIN_AGE", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}
	verifyTimeout, err := envDuration("VERIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := envDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	idempotencyTTL, err := envDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	countCacheTTL, err := envDuration("COUNT_CACHE_TTL", 3*time.Second)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := envDuration("WORKER_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	auditInterval, err := envDuration("COUNTER_AUDIT_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	if reconcileMinAge >= pendingTTL {
		return Config{}, fmt.Errorf("RECONCILE_MIN_AGE (%s) must be shorter than PENDING_VOTE_TTL (%s)", reconcileMinAge, pendingTTL)
	}

	busBuffer, err := envInt("EVENT_BUS_BUFFER", 256)
	if err != nil {
		return Config{}, err
	}
	retryMax, err := envInt("PAYSTACK_RETRY_MAX", 2)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName: service,
		HTTPPort:    port,
		LogFormat:   strings.ToLower(envString("LOG_FORMAT", "text")),
		LogLevel:    strings.ToLower(envString("LOG_LEVEL", "info")),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		SeedFile:       envString("CATALOG_SEED_FILE", "configs/catalog.seed.yaml"),
		SeedOnStart:    envBool("CATALOG_SEED_ON_START", driver == DriverMemory),

		VotePriceMinor: priceMinor,
		VoteCurrency:   currency,

		PendingVoteTTL:     pendingTTL,
		ReconcileMinAge:    reconcileMinAge,
		VerifyTimeout:      verifyTimeout,
		StoreTimeout:       storeTimeout,
		IdempotencyTTL:     idempotencyTTL,
		CountCacheTTL:      countCacheTTL,
		WorkerPollInterval: pollInterval,
		AuditInterval:      auditInterval,
		EventBusBuffer:     busBuffer,
		WorkerMetricsPort:  strings.TrimSpace(envString("WORKER_METRICS_PORT", "9091")),

		PaystackMock:        envBool("PAYSTACK_MOCK", false),
		PaystackBaseURL:     envString("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecretKey:   strings.TrimSpace(os.Getenv("PAYSTACK_SECRET_KEY")),
		PaystackCallbackURL: strings.TrimSpace(os.Getenv("PAYSTACK_CALLBACK_URL")),
		PaystackRetryMax:    retryMax,

		EnableReconciler: envBool("ENABLE_PENDING_RECONCILER", true),
		EnableAuditor:    envBool("ENABLE_COUNTER_AUDITOR", true),
	}
	if !cfg.PaystackMock && cfg.PaystackSecretKey == "" {
		return Config{}, errors.New("PAYSTACK_SECRET_KEY is required unless PAYSTACK_MOCK is enabled")
	}
	return cfg, nil
}

// ParsePriceMinor converts a decimal major-unit price such as "1.00" into
// minor units. Prices finer than a minor unit are rejected.
func ParsePriceMinor(raw string) (int64, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("VOTE_PRICE %q is not a decimal amount: %w", raw, err)
	}
	minor := price.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("VOTE_PRICE %q has more than two decimal places", raw)
	}
	if !minor.IsPositive() {
		return 0, fmt.Errorf("VOTE_PRICE %q must be positive", raw)
	}
	return minor.IntPart(), nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return value, nil
}
