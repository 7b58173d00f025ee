package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/detkit/framestats/internal/config/dto"
	"github.com/spf13/viper"
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	// Set defaults
	l.setDefaults()

	// Load from file if provided
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Expand environment variables in config values
	// Only expand if the value contains ${...} pattern
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	// Unmarshal configuration
	var config dto.ApplicationConfig
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "framestats")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Kafka defaults
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.consumer.auto_offset_reset", "latest")
	l.v.SetDefault("kafka.consumer.enable_auto_commit", false)
	l.v.SetDefault("kafka.consumer.max_poll_interval_ms", 300000)
	l.v.SetDefault("kafka.consumer.session_timeout_ms", 30000)
	l.v.SetDefault("kafka.consumer.heartbeat_interval_ms", 10000)
	l.v.SetDefault("kafka.dlq.enabled", true)
	l.v.SetDefault("kafka.dlq.topic_suffix", "-dlq")
	l.v.SetDefault("kafka.dlq.max_retries", 3)

	// Stats defaults: bin width and buffer spans of the beamline pipeline
	l.v.SetDefault("stats.bin_width", 10000)
	l.v.SetDefault("stats.lookback", 5)
	l.v.SetDefault("stats.streaks_span", 5000)
	l.v.SetDefault("stats.streak_lengths_span", 50000)
	l.v.SetDefault("stats.bragg_counts_span", 50000)
	l.v.SetDefault("stats.bragg_pulse_span", 750000)

	// Export defaults
	l.v.SetDefault("export.enabled", false)
	l.v.SetDefault("export.backend", "file")
	l.v.SetDefault("export.format", "parquet")
	l.v.SetDefault("export.s3.use_path_style", false)
	l.v.SetDefault("export.s3.sse_enabled", true)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.metrics.path", "/metrics")
	l.v.SetDefault("observability.health.port", 8080)
	l.v.SetDefault("observability.health.liveness_path", "/health/live")
	l.v.SetDefault("observability.health.readiness_path", "/health/ready")

	// Shutdown defaults
	l.v.SetDefault("shutdown.grace_period_seconds", 10)
	l.v.SetDefault("shutdown.force_timeout_seconds", 30)
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	// Kafka validation
	if len(config.Kafka.BootstrapServers) == 0 {
		return errors.New("kafka.bootstrap_servers is required")
	}
	if len(config.Kafka.Consumer.Topics) == 0 {
		return errors.New("kafka.consumer.topics is required")
	}
	if config.Kafka.Consumer.GroupID == "" {
		return errors.New("kafka.consumer.group_id is required")
	}

	// Stats validation
	if config.Stats.BinWidth == 0 {
		return errors.New("stats.bin_width must be positive")
	}
	if config.Stats.Lookback <= 0 {
		return errors.New("stats.lookback must be positive")
	}
	for name, span := range map[string]int{
		"stats.streaks_span":        config.Stats.StreaksSpan,
		"stats.streak_lengths_span": config.Stats.StreakLengthsSpan,
		"stats.bragg_counts_span":   config.Stats.BraggCountsSpan,
		"stats.bragg_pulse_span":    config.Stats.BraggPulseSpan,
	} {
		if span <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	// Export validation
	if config.Export.Enabled {
		switch config.Export.Backend {
		case "file":
			if config.Export.File.BasePath == "" {
				return errors.New("export.file.base_path is required for file backend")
			}
		case "s3":
			if config.Export.S3.Bucket == "" {
				return errors.New("export.s3.bucket is required for S3 backend")
			}
			if config.Export.S3.Region == "" {
				return errors.New("export.s3.region is required for S3 backend")
			}
		default:
			return fmt.Errorf("unsupported export backend: %s (supported: file, s3)", config.Export.Backend)
		}

		if config.Export.Format != "parquet" && config.Export.Format != "avro" {
			return fmt.Errorf("unsupported export format: %s", config.Export.Format)
		}
	}

	// Port validation
	if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
	}
	if config.Observability.Health.Port < 1 || config.Observability.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", config.Observability.Health.Port)
	}

	return nil
}
