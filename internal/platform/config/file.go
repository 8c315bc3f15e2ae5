package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig maps mosaic.toml keys onto Config. Only keys present in the file
// override defaults.
type fileConfig struct {
	Server struct {
		Addr            string `toml:"addr"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Composite struct {
		ProductURL        string `toml:"product_url"`
		RecommendationURL string `toml:"recommendation_url"`
		ReviewURL         string `toml:"review_url"`
		DependentTimeout  string `toml:"dependent_timeout"`
		HealthTimeout     string `toml:"health_timeout"`
	} `toml:"composite"`
	Resilience struct {
		ProductTimeout  string  `toml:"product_timeout"`
		MaxAttempts     int     `toml:"max_attempts"`
		RetryWait       string  `toml:"retry_wait"`
		RetryMultiplier float64 `toml:"retry_multiplier"`
		RetryMaxWait    string  `toml:"retry_max_wait"`
		WindowSize      int     `toml:"window_size"`
		FailureRatio    float64 `toml:"failure_ratio"`
		OpenCooldown    string  `toml:"open_cooldown"`
		HalfOpenCalls   int     `toml:"half_open_calls"`
	} `toml:"resilience"`
	Bus struct {
		Kind         string   `toml:"kind"`
		KafkaBrokers []string `toml:"kafka_brokers"`
		Partitions   int32    `toml:"partitions"`
		Replication  int16    `toml:"replication"`
		RedisURL     string   `toml:"redis_url"`
	} `toml:"bus"`
	Redis struct {
		URL      string `toml:"url"`
		PoolSize int    `toml:"pool_size"`
	} `toml:"redis"`
	Database struct {
		ProductURL string `toml:"product_url"`
		ReviewURL  string `toml:"review_url"`
		MaxConns   int32  `toml:"max_conns"`
	} `toml:"database"`
	Auth struct {
		Enabled    bool   `toml:"enabled"`
		SigningKey string `toml:"signing_key"`
		Issuer     string `toml:"issuer"`
		Audience   string `toml:"audience"`
	} `toml:"auth"`
}

func overlayFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	f := fileOverlay{meta: meta}
	f.str(&cfg.Server.Addr, raw.Server.Addr, "server", "addr")
	f.dur(&cfg.Server.ShutdownTimeout, raw.Server.ShutdownTimeout, "server", "shutdown_timeout")
	f.str(&cfg.Log.Level, raw.Log.Level, "log", "level")
	f.str(&cfg.Log.Format, raw.Log.Format, "log", "format")

	f.str(&cfg.Composite.ProductURL, raw.Composite.ProductURL, "composite", "product_url")
	f.str(&cfg.Composite.RecommendationURL, raw.Composite.RecommendationURL, "composite", "recommendation_url")
	f.str(&cfg.Composite.ReviewURL, raw.Composite.ReviewURL, "composite", "review_url")
	f.dur(&cfg.Composite.DependentTimeout, raw.Composite.DependentTimeout, "composite", "dependent_timeout")
	f.dur(&cfg.Composite.HealthTimeout, raw.Composite.HealthTimeout, "composite", "health_timeout")

	r := raw.Resilience
	f.dur(&cfg.Resilience.ProductTimeout, r.ProductTimeout, "resilience", "product_timeout")
	if meta.IsDefined("resilience", "max_attempts") {
		cfg.Resilience.MaxAttempts = r.MaxAttempts
	}
	f.dur(&cfg.Resilience.RetryWait, r.RetryWait, "resilience", "retry_wait")
	if meta.IsDefined("resilience", "retry_multiplier") {
		cfg.Resilience.RetryMultiplier = r.RetryMultiplier
	}
	f.dur(&cfg.Resilience.RetryMaxWait, r.RetryMaxWait, "resilience", "retry_max_wait")
	if meta.IsDefined("resilience", "window_size") {
		cfg.Resilience.WindowSize = r.WindowSize
	}
	if meta.IsDefined("resilience", "failure_ratio") {
		cfg.Resilience.FailureRatio = r.FailureRatio
	}
	f.dur(&cfg.Resilience.OpenCooldown, r.OpenCooldown, "resilience", "open_cooldown")
	if meta.IsDefined("resilience", "half_open_calls") {
		cfg.Resilience.HalfOpenCalls = r.HalfOpenCalls
	}

	f.str(&cfg.Bus.Kind, raw.Bus.Kind, "bus", "kind")
	if meta.IsDefined("bus", "kafka_brokers") {
		cfg.Bus.KafkaBrokers = raw.Bus.KafkaBrokers
	}
	if meta.IsDefined("bus", "partitions") {
		cfg.Bus.Partitions = raw.Bus.Partitions
	}
	if meta.IsDefined("bus", "replication") {
		cfg.Bus.Replication = raw.Bus.Replication
	}
	f.str(&cfg.Bus.RedisURL, raw.Bus.RedisURL, "bus", "redis_url")

	f.str(&cfg.Redis.URL, raw.Redis.URL, "redis", "url")
	if meta.IsDefined("redis", "pool_size") {
		cfg.Redis.PoolSize = raw.Redis.PoolSize
	}
	f.str(&cfg.Database.ProductURL, raw.Database.ProductURL, "database", "product_url")
	f.str(&cfg.Database.ReviewURL, raw.Database.ReviewURL, "database", "review_url")
	if meta.IsDefined("database", "max_conns") {
		cfg.Database.MaxConns = raw.Database.MaxConns
	}

	if meta.IsDefined("auth", "enabled") {
		cfg.Auth.Enabled = raw.Auth.Enabled
	}
	f.str(&cfg.Auth.SigningKey, raw.Auth.SigningKey, "auth", "signing_key")
	f.str(&cfg.Auth.Issuer, raw.Auth.Issuer, "auth", "issuer")
	f.str(&cfg.Auth.Audience, raw.Auth.Audience, "auth", "audience")

	if len(f.errs) > 0 {
		return fmt.Errorf("load config %s: %w", path, errors.Join(f.errs...))
	}
	return nil
}

type fileOverlay struct {
	meta toml.MetaData
	errs []error
}

func (f *fileOverlay) str(dst *string, v string, key ...string) {
	if f.meta.IsDefined(key...) {
		*dst = strings.TrimSpace(v)
	}
}

func (f *fileOverlay) dur(dst *time.Duration, v string, key ...string) {
	if !f.meta.IsDefined(key...) {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		f.errs = append(f.errs, fmt.Errorf("%s: %w", strings.Join(key, "."), err))
		return
	}
	*dst = d
}
