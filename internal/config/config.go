// Package config loads obsforge's runtime configuration from layered sources:
// built-in defaults, then an optional YAML file, then environment variables,
// using koanf v2.
package config

import "time"

// SchedulerAlgorithm selects which scheduling algorithm runs by default.
type SchedulerAlgorithm string

const (
	AlgorithmAccumulative SchedulerAlgorithm = "accumulative"
	AlgorithmHybrid       SchedulerAlgorithm = "hybrid"
)

// RepositoryKind selects the repository backend.
type RepositoryKind string

const (
	RepositoryLocal      RepositoryKind = "local"
	RepositoryRelational RepositoryKind = "relational"
)

// Config is the root configuration object.
type Config struct {
	Repository RepositoryKind   `koanf:"repository"`
	Relational RelationalConfig `koanf:"relational"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Scheduler  SchedulerConfig  `koanf:"scheduler"`
	Analytics  AnalyticsConfig  `koanf:"analytics"`
	Validator  ValidatorConfig  `koanf:"validator"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// RelationalConfig configures the DuckDB-backed repository.
type RelationalConfig struct {
	ConnectionString string `koanf:"connection_string"`
	PoolMax          int    `koanf:"pool_max"`
}

// ResilienceConfig configures the retry-and-circuit-breaker wrapper placed
// in front of every repository backend.
type ResilienceConfig struct {
	MaxRetries          int           `koanf:"max_retries"`
	BaseBackoff         time.Duration `koanf:"base_backoff"`
	MaxBackoff          time.Duration `koanf:"max_backoff"`
	BreakerFailureCount uint32        `koanf:"breaker_failure_count"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"`
}

// SchedulerConfig configures default scheduling behavior.
type SchedulerConfig struct {
	DefaultAlgorithm  SchedulerAlgorithm `koanf:"default_algorithm"`
	DefaultSeeds      int                `koanf:"default_seeds"`
	TimeLimitSeconds  float64            `koanf:"time_limit_seconds"`
}

// AnalyticsConfig configures the ETL's binning granularity.
type AnalyticsConfig struct {
	VisibilityBinSeconds int `koanf:"visibility_bin_seconds"`
}

// ValidatorConfig configures the rule catalog's thresholds.
type ValidatorConfig struct {
	PriorityOutlierZ float64 `koanf:"priority_outlier_z"`
}

// ServerConfig configures the thin reference HTTP binding.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults, applied before any file or
// environment override.
func Default() *Config {
	return &Config{
		Repository: RepositoryLocal,
		Relational: RelationalConfig{
			ConnectionString: "obsforge.duckdb",
			PoolMax:          4,
		},
		Resilience: ResilienceConfig{
			MaxRetries:          3,
			BaseBackoff:         50 * time.Millisecond,
			MaxBackoff:          2 * time.Second,
			BreakerFailureCount: 5,
			BreakerOpenTimeout:  30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			DefaultAlgorithm: AlgorithmAccumulative,
			DefaultSeeds:     8,
			TimeLimitSeconds: 0, // 0 = no wall-clock limit
		},
		Analytics: AnalyticsConfig{
			VisibilityBinSeconds: 900,
		},
		Validator: ValidatorConfig{
			PriorityOutlierZ: 3.0,
		},
		Server: ServerConfig{
			Addr:            ":3550",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
