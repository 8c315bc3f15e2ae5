package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Composite locates the backing services the gateway aggregates.
type Composite struct {
	ProductURL        string
	RecommendationURL string
	ReviewURL         string
	// DependentTimeout bounds the best-effort recommendation and review calls
	// at the transport level; they get no other protection.
	DependentTimeout time.Duration
	// HealthTimeout bounds each backing health probe.
	HealthTimeout time.Duration
}

// Resilience configures the product call policy and its breaker.
type Resilience struct {
	ProductTimeout  time.Duration
	MaxAttempts     int
	RetryWait       time.Duration
	RetryMultiplier float64
	RetryMaxWait    time.Duration
	WindowSize      int
	FailureRatio    float64
	OpenCooldown    time.Duration
	HalfOpenCalls   int
}

// Bus selects the command transport.
type Bus struct {
	Kind         string // memory, kafka or redis
	KafkaBrokers []string
	// Partitions and Replication are applied when topics are provisioned.
	Partitions  int32
	Replication int16
	RedisURL    string
}

// RedisConfig configures the recommendation store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Database struct {
	ProductURL string
	ReviewURL  string
	MaxConns   int32
}

type Auth struct {
	Enabled    bool
	SigningKey string
	Issuer     string
	Audience   string
}

type Config struct {
	Server     Server
	Log        Log
	Composite  Composite
	Resilience Resilience
	Bus        Bus
	Redis      RedisConfig
	Database   Database
	Auth       Auth
}

const (
	BusMemory = "memory"
	BusKafka  = "kafka"
	BusRedis  = "redis"
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{Level: "info", Format: "json"},
		Composite: Composite{
			ProductURL:        "http://product:8080",
			RecommendationURL: "http://recommendation:8080",
			ReviewURL:         "http://review:8080",
			DependentTimeout:  5 * time.Second,
			HealthTimeout:     3 * time.Second,
		},
		Resilience: Resilience{
			ProductTimeout:  2 * time.Second,
			MaxAttempts:     3,
			RetryWait:       time.Second,
			RetryMultiplier: 1,
			RetryMaxWait:    10 * time.Second,
			WindowSize:      5,
			FailureRatio:    0.5,
			OpenCooldown:    10 * time.Second,
			HalfOpenCalls:   1,
		},
		Bus: Bus{
			Kind:         BusMemory,
			KafkaBrokers: []string{"localhost:9092"},
			Partitions:   2,
			Replication:  1,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: Database{MaxConns: 10},
		Auth: Auth{
			SigningKey: "dev-secret-key-change-in-production",
			Issuer:     "mosaic",
			Audience:   "product-composite",
		},
	}
}

// FromEnv builds the configuration from defaults, the optional file named by
// MOSAIC_CONFIG, and environment variables, in increasing precedence.
func FromEnv() (Config, error) {
	return Load(os.Getenv("MOSAIC_CONFIG"))
}

// Load is FromEnv with an explicit config file path. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := overlayEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the resilience and bus layers cannot honor.
func (c Config) Validate() error {
	var errs []error
	if c.Resilience.MaxAttempts < 1 {
		errs = append(errs, errors.New("resilience: max attempts must be at least 1"))
	}
	if c.Resilience.WindowSize < 1 {
		errs = append(errs, errors.New("resilience: window size must be at least 1"))
	}
	if c.Resilience.FailureRatio <= 0 || c.Resilience.FailureRatio > 1 {
		errs = append(errs, fmt.Errorf("resilience: failure ratio %v outside (0,1]", c.Resilience.FailureRatio))
	}
	if c.Resilience.HalfOpenCalls < 1 {
		errs = append(errs, errors.New("resilience: half-open calls must be at least 1"))
	}
	if c.Resilience.ProductTimeout <= 0 {
		errs = append(errs, errors.New("resilience: product timeout must be positive"))
	}
	if c.Resilience.RetryMultiplier < 1 {
		errs = append(errs, errors.New("resilience: retry multiplier must be at least 1"))
	}
	switch c.Bus.Kind {
	case BusMemory:
	case BusKafka:
		if len(c.Bus.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("bus: kafka needs at least one broker"))
		}
	case BusRedis:
		if c.Bus.RedisURL == "" {
			errs = append(errs, errors.New("bus: redis needs a URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("bus: unknown kind %q", c.Bus.Kind))
	}
	if c.Auth.Enabled && c.Auth.SigningKey == "" {
		errs = append(errs, errors.New("auth: signing key is required when auth is enabled"))
	}
	return errors.Join(errs...)
}

type lookupFunc func(string) (string, bool)

func overlayEnv(cfg *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}
	e.str("ADDR", &cfg.Server.Addr)
	e.dur("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	e.str("LOG_LEVEL", &cfg.Log.Level)
	e.str("LOG_FORMAT", &cfg.Log.Format)

	e.str("PRODUCT_SERVICE_URL", &cfg.Composite.ProductURL)
	e.str("RECOMMENDATION_SERVICE_URL", &cfg.Composite.RecommendationURL)
	e.str("REVIEW_SERVICE_URL", &cfg.Composite.ReviewURL)
	e.dur("DEPENDENT_TIMEOUT", &cfg.Composite.DependentTimeout)
	e.dur("HEALTH_TIMEOUT", &cfg.Composite.HealthTimeout)

	e.dur("PRODUCT_TIMEOUT", &cfg.Resilience.ProductTimeout)
	e.int("RETRY_MAX_ATTEMPTS", &cfg.Resilience.MaxAttempts)
	e.dur("RETRY_WAIT", &cfg.Resilience.RetryWait)
	e.float("RETRY_MULTIPLIER", &cfg.Resilience.RetryMultiplier)
	e.dur("RETRY_MAX_WAIT", &cfg.Resilience.RetryMaxWait)
	e.int("CB_WINDOW_SIZE", &cfg.Resilience.WindowSize)
	e.float("CB_FAILURE_RATIO", &cfg.Resilience.FailureRatio)
	e.dur("CB_OPEN_COOLDOWN", &cfg.Resilience.OpenCooldown)
	e.int("CB_HALF_OPEN_CALLS", &cfg.Resilience.HalfOpenCalls)

	e.str("BUS_KIND", &cfg.Bus.Kind)
	e.list("KAFKA_BROKERS", &cfg.Bus.KafkaBrokers)
	e.str("BUS_REDIS_URL", &cfg.Bus.RedisURL)

	e.str("REDIS_URL", &cfg.Redis.URL)
	e.int("REDIS_POOL_SIZE", &cfg.Redis.PoolSize)

	e.str("PRODUCT_DATABASE_URL", &cfg.Database.ProductURL)
	e.str("REVIEW_DATABASE_URL", &cfg.Database.ReviewURL)

	e.bool("AUTH_ENABLED", &cfg.Auth.Enabled)
	e.str("JWT_SIGNING_KEY", &cfg.Auth.SigningKey)
	e.str("JWT_ISSUER", &cfg.Auth.Issuer)
	e.str("JWT_AUDIENCE", &cfg.Auth.Audience)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.get(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
	}
}

func (e *envReader) int(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) bool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) dur(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}
