package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-risk-engine/internal/adapter/gemini"
	"github.com/couchcryptid/climate-risk-engine/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/climate-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/climate-risk-engine/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-risk-engine/internal/adapter/nasapower"
	"github.com/couchcryptid/climate-risk-engine/internal/config"
	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
	"github.com/couchcryptid/climate-risk-engine/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := nasapower.NewClient(cfg.ClimatologyURL, cfg.ClimatologyTimeout, metrics, logger)
	provider := nasapower.NewCachedProvider(client, cfg.ClimatologyCacheSize, metrics)

	// Narrative generation is feature-flagged via NARRATIVE_ENABLED / GEMINI_API_KEY.
	var narrator domain.Narrator
	if cfg.NarrativeEnabled {
		narrator = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiURL, metrics, logger)
		logger.Info("gemini narrative enabled", "model", cfg.GeminiModel, "timeout", cfg.NarrativeTimeout)
	} else {
		logger.Info("gemini narrative disabled, using template fallback")
	}

	// Location labelling and name lookup need a Mapbox token.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		geocoder = mapbox.NewCachedGeocoder(
			mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger),
			cfg.MapboxCacheSize, metrics,
		)
		logger.Info("mapbox geocoding enabled", "timeout", cfg.MapboxTimeout)
	}

	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.PublisherEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("assessment publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAssessmentTopic)
	}

	engine := pipeline.NewEngine(cfg.Calibration())
	assessor := pipeline.New(engine, pipeline.Collaborators{
		Provider:  provider,
		Narrator:  narrator,
		Geocoder:  geocoder,
		Publisher: publisher,
	}, logger, metrics, pipeline.Options{
		ClimatologyTimeout: cfg.ClimatologyTimeout,
		NarrativeTimeout:   cfg.NarrativeTimeout,
		GeocodeTimeout:     cfg.MapboxTimeout,
		PublishTimeout:     cfg.KafkaPublishTimeout,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, assessor, assessor, cfg.CORSAllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	assessor.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
