package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// NASA POWER climatology configuration.
	ClimatologyURL       string
	ClimatologyTimeout   time.Duration
	ClimatologyCacheSize int

	// Gemini narrative configuration.
	GeminiAPIKey     string
	GeminiModel      string
	GeminiURL        string
	NarrativeEnabled bool
	NarrativeTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// EstimatorWeights overrides the ensemble weight of named estimators.
	EstimatorWeights map[domain.EstimatorName]float64

	// Optional Kafka assessment publisher.
	KafkaBrokers         []string
	KafkaAssessmentTopic string
	KafkaPublishTimeout  time.Duration
	PublisherEnabled     bool
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present; variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	climatologyTimeout, err := parseDuration("CLIMATOLOGY_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	narrativeTimeout, err := parseDuration("NARRATIVE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	publishTimeout, err := parseDuration("PUBLISH_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	weights, err := domain.ParseEstimatorWeights(os.Getenv("ESTIMATOR_WEIGHTS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ESTIMATOR_WEIGHTS: %w", err)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	narrativeEnabled := geminiKey != ""
	if v := os.Getenv("NARRATIVE_ENABLED"); v != "" {
		narrativeEnabled = v == "true"
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		ClimatologyURL:       sharedcfg.EnvOrDefault("NASA_POWER_URL", "https://power.larc.nasa.gov/api/temporal/climatology/point"),
		ClimatologyTimeout:   climatologyTimeout,
		ClimatologyCacheSize: parseCacheSize("CLIMATOLOGY_CACHE_SIZE", 512),

		GeminiAPIKey:     geminiKey,
		GeminiModel:      sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiURL:        sharedcfg.EnvOrDefault("GEMINI_URL", "https://generativelanguage.googleapis.com/v1beta"),
		NarrativeEnabled: narrativeEnabled,
		NarrativeTimeout: narrativeTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize("MAPBOX_CACHE_SIZE", 1000),

		EstimatorWeights: weights,

		KafkaBrokers:         brokers,
		KafkaAssessmentTopic: sharedcfg.EnvOrDefault("KAFKA_ASSESSMENT_TOPIC", "climate-risk-assessments"),
		KafkaPublishTimeout:  publishTimeout,
		PublisherEnabled:     len(brokers) > 0,
	}

	if cfg.NarrativeEnabled && cfg.GeminiAPIKey == "" {
		return nil, errors.New("NARRATIVE_ENABLED is true but GEMINI_API_KEY is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.PublisherEnabled && cfg.KafkaAssessmentTopic == "" {
		return nil, errors.New("KAFKA_ASSESSMENT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Calibration returns the default calibration with any configured estimator
// weight overrides applied.
func (c *Config) Calibration() domain.Calibration {
	cal := domain.DefaultCalibration()
	if len(c.EstimatorWeights) > 0 {
		cal = cal.WithEstimatorWeights(c.EstimatorWeights)
	}
	return cal
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
