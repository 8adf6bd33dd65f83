package worker

import (
	"fmt"
	"log/slog"
	"time"

	"release-radar/internal/pkg/config"
)

// WorkerConfig holds the configuration for the worker component.
// This configuration controls the poll schedule, timezone, cooldown behavior,
// and other operational parameters for the worker service.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have sensible defaults and validation rules to ensure
// the worker can operate safely even with invalid or missing configuration.
//
// Example usage:
//
//	// Use defaults
//	config := DefaultConfig()
//
//	// Load from environment with fallback
//	config, err := LoadConfigFromEnv(logger, metrics)
//	if err != nil {
//	    // This should never happen with fail-open strategy
//	    log.Fatal("Unexpected configuration error: %v", err)
//	}
type WorkerConfig struct {
	// PollSchedule is the cron expression for the poll cycle.
	// The default fires on every wall-clock 5-minute boundary so cycle
	// starts are aligned to the grid regardless of process start time.
	// Validation: Must be a valid cron expression (5 fields)
	// Default: "*/5 * * * *"
	PollSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	// Upstream timestamps and watermarks are UTC, so the scheduler runs in
	// UTC too unless overridden.
	// Default: "UTC"
	Timezone string

	// CooldownDuration is how long a platform stays suppressed after a
	// rate-limit signal.
	// Range: 1 minute - 48 hours
	// Default: 12 hours
	CooldownDuration time.Duration

	// FetchParallelism bounds concurrent platform fetches within one pass.
	// Range: 1-50
	// Default: 4
	FetchParallelism int

	// CycleTimeout is the maximum duration for a single poll cycle.
	// After this timeout, the cycle is cancelled; the next scheduled tick
	// retries everything (watermarks guarantee nothing is lost).
	// Range: 1 minute - 4 hours
	// Default: 10 minutes
	CycleTimeout time.Duration

	// HealthPort is the port number for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with sensible default values.
// These defaults are optimized for:
//   - Freshness: a check every 5 minutes, aligned to the wall clock
//   - Safety: 10-minute timeout prevents stuck cycles
//   - Politeness: 12-hour cooldown after a platform rate limit
//   - Standard ports: 9091 for health checks (common Prometheus exporter port)
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		PollSchedule:     "*/5 * * * *",
		Timezone:         "UTC",
		CooldownDuration: 12 * time.Hour,
		FetchParallelism: 4,
		CycleTimeout:     10 * time.Minute,
		HealthPort:       9091,
	}
}

// Validate checks if the configuration values are valid.
// This method validates each field using the reusable validators from internal/pkg/config.
// If multiple fields are invalid, all errors are collected and returned together.
//
// Validation rules:
//   - PollSchedule: Must be a valid cron expression (validated by robfig/cron parser)
//   - Timezone: Must be a valid IANA timezone name (validated by time.LoadLocation)
//   - CooldownDuration: Must be between 1 minute and 48 hours
//   - FetchParallelism: Must be between 1 and 50 (inclusive)
//   - CycleTimeout: Must be positive (> 0)
//   - HealthPort: Must be between 1024 and 65535 (avoid privileged ports)
//
// Returns:
//   - error: nil if configuration is valid, aggregated error if any validation fails
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.PollSchedule); err != nil {
		errors = append(errors, fmt.Errorf("poll schedule: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateDuration(c.CooldownDuration, 1*time.Minute, 48*time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("cooldown duration: %w", err))
	}

	if err := config.ValidateIntRange(c.FetchParallelism, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("fetch parallelism: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.CycleTimeout); err != nil {
		errors = append(errors, fmt.Errorf("cycle timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - POLL_SCHEDULE: Cron expression (default: "*/5 * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - COOLDOWN_DURATION: Duration string, e.g., "12h" (default: 12 hours)
//   - FETCH_PARALLELISM: Integer 1-50 (default: 4)
//   - CYCLE_TIMEOUT: Duration string, e.g., "10m" (default: 10 minutes)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//
// Metrics updated:
//   - ValidationErrorsTotal: Incremented for each validation failure
//   - FallbacksTotal: Incremented for each fallback applied
//   - FallbackActive: Set to 1 if any fallback is active, 0 otherwise
//   - LoadTimestamp: Set to current time after successful load
//
// Parameters:
//   - logger: Structured logger for warnings
//   - metrics: Metrics instance for tracking fallbacks
//
// Returns:
//   - *WorkerConfig: Valid configuration (never nil)
//   - error: Always nil (fail-open strategy)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	// Start with default config
	cfg := DefaultConfig()
	fallbackApplied := false

	// Load PollSchedule
	result := config.LoadEnvWithFallback("POLL_SCHEDULE", cfg.PollSchedule, config.ValidateCronSchedule)
	cfg.PollSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("poll_schedule")
		metrics.RecordFallback("poll_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "PollSchedule"),
				slog.String("warning", warning))
		}
	}

	// Load Timezone
	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "Timezone"),
				slog.String("warning", warning))
		}
	}

	// Load CooldownDuration (1m-48h range)
	result = config.LoadEnvDuration("COOLDOWN_DURATION", cfg.CooldownDuration, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 48*time.Hour)
	})
	cfg.CooldownDuration = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cooldown_duration")
		metrics.RecordFallback("cooldown_duration", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "CooldownDuration"),
				slog.String("warning", warning))
		}
	}

	// Load FetchParallelism
	result = config.LoadEnvInt("FETCH_PARALLELISM", cfg.FetchParallelism, func(v int) error {
		return config.ValidateIntRange(v, 1, 50)
	})
	cfg.FetchParallelism = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("fetch_parallelism")
		metrics.RecordFallback("fetch_parallelism", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "FetchParallelism"),
				slog.String("warning", warning))
		}
	}

	// Load CycleTimeout (1m-4h range)
	result = config.LoadEnvDuration("CYCLE_TIMEOUT", cfg.CycleTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.CycleTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cycle_timeout")
		metrics.RecordFallback("cycle_timeout", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "CycleTimeout"),
				slog.String("warning", warning))
		}
	}

	// Load HealthPort
	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", "HealthPort"),
				slog.String("warning", warning))
		}
	}

	// Update metrics
	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
