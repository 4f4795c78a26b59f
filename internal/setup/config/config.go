package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// Current version of the config files.
const (
	CurrentCommonVersion = 1
	CurrentWorkerVersion = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Worker WorkerConfig
}

// CommonConfig contains configuration shared by all binaries.
type CommonConfig struct {
	// Version of the common config.
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	PostgreSQL     PostgreSQL     `koanf:"postgresql"`
	OpenAI         OpenAI         `koanf:"openai"`
	Risk           Risk           `koanf:"risk"`
}

// WorkerConfig contains worker specific configuration.
type WorkerConfig struct {
	// Version of the worker config.
	Version int `koanf:"version"`
	// Port for the Prometheus metrics listener (0 disables it).
	MetricsPort int `koanf:"metrics_port"`
	// Batch sizes for worker operations.
	BatchSizes BatchSizes `koanf:"batch_sizes"`
	// Threshold limits for worker operations.
	ThresholdLimits ThresholdLimits `koanf:"threshold_limits"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// pprof server port.
	PprofPort int `koanf:"pprof_port"`
}

// CircuitBreaker contains configuration for the shared AI circuit breaker.
type CircuitBreaker struct {
	// Consecutive failures before the breaker opens.
	FailureThreshold uint32 `koanf:"failure_threshold"`
	// Open-state cooldown in seconds before the breaker goes half-open.
	CooldownSeconds int `koanf:"cooldown_seconds"`
	// Requests allowed through while half-open.
	HalfOpenRequests uint32 `koanf:"half_open_requests"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// OpenAI contains configuration for the OpenAI-compatible API.
type OpenAI struct {
	// Base URL for the API.
	BaseURL string `koanf:"base_url"`
	// API key for authentication.
	APIKey string `koanf:"api_key"`
	// Maximum concurrent requests.
	MaxConcurrent int64 `koanf:"max_concurrent"`
	// Per-attempt request timeout in seconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Model name mappings.
	ModelMappings map[string]string `koanf:"model_mappings"`
	// Model to use for sentiment classification.
	SentimentModel string `koanf:"sentiment_model"`
	// Model to use for insight generation.
	InsightModel string `koanf:"insight_model"`
}

// Risk contains the empirically chosen risk thresholds. The defaults mirror
// the values the heuristics were tuned with; they are configuration so a
// deployment can adjust them without a rebuild.
type Risk struct {
	// Average sentiment below which a channel is flagged as highly negative.
	HighNegativeSentiment float64 `koanf:"high_negative_sentiment"`
	// Mildly negative average sentiment threshold.
	MildNegativeSentiment float64 `koanf:"mild_negative_sentiment"`
	// Negative bucket must exceed this multiple of the positive bucket.
	NegativeRatio float64 `koanf:"negative_ratio"`
	// Thread-reply ratio below which collaboration is considered low.
	LowCollaborationRatio float64 `koanf:"low_collaboration_ratio"`
	// Minimum message count for the low-collaboration rule to apply.
	LowCollaborationMinMessages int `koanf:"low_collaboration_min_messages"`
	// Message count below which a channel is very low volume.
	VeryLowVolume int `koanf:"very_low_volume"`
	// Channel point score at or above which risk is high.
	ChannelHighScore float64 `koanf:"channel_high_score"`
	// Channel point score at or above which risk is medium.
	ChannelMediumScore float64 `koanf:"channel_medium_score"`
	// Fraction of high-risk channels above which the workspace is high risk.
	OverallHighFraction float64 `koanf:"overall_high_fraction"`
	// High fraction that, combined with the medium fraction below, is high risk.
	OverallCombinedHighFraction float64 `koanf:"overall_combined_high_fraction"`
	// Medium fraction used together with the combined high fraction.
	OverallCombinedMediumFraction float64 `koanf:"overall_combined_medium_fraction"`
	// Fraction of medium-risk channels above which the workspace is medium risk.
	OverallMediumFraction float64 `koanf:"overall_medium_fraction"`
}

// BatchSizes configures how many items to process in each batch.
type BatchSizes struct {
	// Number of messages per classifier sub-batch.
	ScoreBatch int `koanf:"score_batch"`
	// Number of unscored messages pulled per sweep.
	SweepPage int `koanf:"sweep_page"`
	// Number of channels aggregated concurrently per group.
	MetricsChannels int `koanf:"metrics_channels"`
}

// ThresholdLimits contains bounds that guarantee worker runs terminate.
type ThresholdLimits struct {
	// Delay between classifier sub-batches in milliseconds.
	InterBatchDelay int `koanf:"inter_batch_delay"`
	// Pause between channel metric groups in milliseconds.
	InterGroupPause int `koanf:"inter_group_pause"`
	// Maximum pages scanned per weekly aggregation.
	MaxMetricsPages int `koanf:"max_metrics_pages"`
	// Maximum messages reduced per weekly aggregation.
	MaxMetricsMessages int `koanf:"max_metrics_messages"`
	// Page size for weekly aggregation scans.
	MetricsPageSize int `koanf:"metrics_page_size"`
	// Wall-clock timeout for one insight run in seconds.
	RunTimeout int `koanf:"run_timeout"`
	// Interval between sweep runs in seconds.
	SweepInterval int `koanf:"sweep_interval"`
}

// LoadConfig loads the configuration from the specified file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".teampulse",
		homeDir + "/.teampulse/config",
		"/etc/teampulse/config",
		"/app/config",
		"config",
		".",
	}

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "worker"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("worker", config.Worker.Version, CurrentWorkerVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// DefaultRisk returns the risk thresholds the heuristics were tuned with.
func DefaultRisk() Risk {
	return Risk{
		HighNegativeSentiment:         -0.3,
		MildNegativeSentiment:         -0.1,
		NegativeRatio:                 1.5,
		LowCollaborationRatio:         0.15,
		LowCollaborationMinMessages:   20,
		VeryLowVolume:                 5,
		ChannelHighScore:              5,
		ChannelMediumScore:            3,
		OverallHighFraction:           0.30,
		OverallCombinedHighFraction:   0.10,
		OverallCombinedMediumFraction: 0.40,
		OverallMediumFraction:         0.50,
	}
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf("%w: %s.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, name, current, expected)
	}

	return nil
}
