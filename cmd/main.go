package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/detkit/framestats/internal/config"
	"github.com/detkit/framestats/internal/config/dto"
	exportenc "github.com/detkit/framestats/internal/export"
	"github.com/detkit/framestats/internal/kafka"
	"github.com/detkit/framestats/internal/observability"
	"github.com/detkit/framestats/internal/server"
	"github.com/detkit/framestats/internal/stats"
	"github.com/detkit/framestats/internal/storage"
	"github.com/detkit/framestats/internal/validator"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Load configuration
	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	loader := config.NewLoader()
	cfg, err := loader.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize observability
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})
	logger.Info("starting frame statistics service",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Track cleanup functions
	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, fn)
		logger.Debug("registered cleanup", "component", name)
	}
	runCleanups := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
	}
	defer runCleanups()

	// Initialize frame validator
	frameValidator := validator.NewFrameValidator()

	// Initialize the statistics core
	statsHandler, err := stats.NewHandler(stats.Config{
		BinWidth:          cfg.Stats.BinWidth,
		Lookback:          cfg.Stats.Lookback,
		StreaksSpan:       cfg.Stats.StreaksSpan,
		StreakLengthsSpan: cfg.Stats.StreakLengthsSpan,
		BraggCountsSpan:   cfg.Stats.BraggCountsSpan,
		BraggPulseSpan:    cfg.Stats.BraggPulseSpan,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create statistics handler: %w", err)
	}

	// Initialize infrastructure
	consumerConfig := kafka.ConsumerConfig{
		BootstrapServers:    cfg.Kafka.BootstrapServers,
		GroupID:             cfg.Kafka.Consumer.GroupID,
		SecurityProtocol:    cfg.Kafka.SecurityProtocol,
		SASLMechanism:       cfg.Kafka.SASLMechanism,
		SASLUsername:        cfg.Kafka.SASLUsername,
		SASLPassword:        cfg.Kafka.SASLPassword,
		AutoOffsetReset:     cfg.Kafka.Consumer.AutoOffsetReset,
		EnableAutoCommit:    cfg.Kafka.Consumer.EnableAutoCommit,
		MaxPollIntervalMS:   cfg.Kafka.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    cfg.Kafka.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: cfg.Kafka.Consumer.HeartbeatIntervalMS,
	}
	frameConsumer, err := kafka.NewSaramaConsumer(consumerConfig, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	addCleanup("kafka-consumer", frameConsumer.Close)

	dlqConfig := kafka.DLQConfig{
		Enabled:     cfg.Kafka.DLQ.Enabled,
		TopicSuffix: cfg.Kafka.DLQ.TopicSuffix,
		MaxRetries:  cfg.Kafka.DLQ.MaxRetries,
	}
	dlqPublisher, err := kafka.NewDLQPublisher(cfg.Kafka.BootstrapServers, consumerConfig, dlqConfig, logger, cfg.Application.Name)
	if err != nil {
		return fmt.Errorf("failed to create DLQ publisher: %w", err)
	}
	addCleanup("dlq-publisher", dlqPublisher.Close)

	// Optional snapshot export
	exportSnapshot, err := setupExport(cfg, statsHandler, logger, metrics, addCleanup)
	if err != nil {
		return err
	}

	// Health checker flips ready once the consumer group is running
	healthChecker := &serviceHealth{}

	// Statistics API
	statsAPI := server.NewStatsAPI(statsHandler, logger)
	if exportSnapshot != nil {
		statsAPI.OnReset = exportSnapshot
	}

	// Start HTTP servers
	httpServer := server.NewServer(
		cfg.Observability.Health.Port,
		cfg.Observability.Metrics.Port,
		healthChecker,
		statsAPI,
		registry,
		logger,
	)

	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	logger.Info("application started successfully")

	// Subscribe to topics
	if err := frameConsumer.Subscribe(context.Background(), cfg.Kafka.Consumer.Topics); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consuming
	frameChan, errorChan, err := frameConsumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	healthChecker.setReady(true)

	// Keep occupancy gauges current in the background
	go reportOccupancy(ctx, statsHandler, metrics)

	// Start consume loop in background
	consumeErrChan := make(chan error, 1)
	go func() {
		consumeErrChan <- processFrames(ctx, frameChan, errorChan, frameValidator, statsHandler, dlqPublisher, logger, metrics)
	}()

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("received termination signal")
	case err := <-consumeErrChan:
		if err != nil {
			logger.Error("consume error", "error", err)
			return err
		}
	}

	// Graceful shutdown
	logger.Info("initiating graceful shutdown")
	healthChecker.setReady(false)
	cancel()

	// Allow time for in-flight operations to complete
	shutdownTimeout := time.Duration(cfg.Shutdown.GracePeriodSeconds) * time.Second
	time.Sleep(shutdownTimeout)

	// Preserve the final table before the process exits
	if exportSnapshot != nil {
		exportCtx, exportCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := exportSnapshot(exportCtx); err != nil {
			logger.Error("final snapshot export failed", "error", err)
		}
		exportCancel()
	}

	logger.Info("application stopped successfully")
	return nil
}

// setupExport wires the snapshot writer for the configured backend and
// returns a function that exports the current statistics table. Returns nil
// when export is disabled.
func setupExport(
	cfg *dto.ApplicationConfig,
	statsHandler *stats.Handler,
	logger *slog.Logger,
	metrics *observability.Metrics,
	addCleanup func(name string, fn func() error),
) (func(ctx context.Context) error, error) {
	if !cfg.Export.Enabled {
		logger.Info("snapshot export disabled")
		return nil, nil
	}

	format := frame.FormatParquet
	if cfg.Export.Format == "avro" {
		format = frame.FormatAvro
	}

	compression := cfg.Export.Compression
	if compression == "" {
		compression = exportenc.DefaultCompression(format)
	}

	var (
		writer export.Writer
		router export.Router
		err    error
	)
	switch cfg.Export.Backend {
	case "file":
		fileConfig := storage.FileConfig{
			BasePath: cfg.Export.File.BasePath,
		}
		writer, err = storage.NewFileWriter(fileConfig, format, compression, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem writer: %w", err)
		}
		router = storage.NewRouter("file", "", "")
	case "s3":
		s3Config := storage.S3Config{
			Bucket:       cfg.Export.S3.Bucket,
			Region:       cfg.Export.S3.Region,
			Endpoint:     cfg.Export.S3.Endpoint,
			UsePathStyle: cfg.Export.S3.UsePathStyle,
			SSEEnabled:   cfg.Export.S3.SSEEnabled,
			SSEKMSKeyID:  cfg.Export.S3.SSEKMSKeyID,
		}
		writer, err = storage.NewS3Writer(s3Config, format, compression, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 writer: %w", err)
		}
		router = storage.NewRouter("s3", cfg.Export.S3.Bucket, cfg.Export.S3.BasePath)
	default:
		return nil, fmt.Errorf("unsupported export backend: %s (supported: file, s3)", cfg.Export.Backend)
	}
	addCleanup("snapshot-writer", writer.Close)

	exportSnapshot := func(ctx context.Context) error {
		table := statsHandler.Table()
		if table.Len() == 0 {
			logger.Debug("statistics table empty, skipping snapshot export")
			return nil
		}

		snapshot := export.Snapshot{
			Rows:    table.Rows(),
			Summary: table.Summary(),
		}

		path := router.Route(time.Now().Unix())
		bytesWritten, err := writer.Write(ctx, snapshot, path)
		if err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}

		logger.Info("exported statistics snapshot",
			"rows", len(snapshot.Rows),
			"bytes", bytesWritten,
			"path", path,
		)
		return nil
	}

	return exportSnapshot, nil
}

// processFrames is the ingest loop: validate, route to the statistics core,
// dead-letter what cannot be processed, commit what was handled.
func processFrames(
	ctx context.Context,
	frameChan <-chan *frame.ConsumedFrame,
	errorChan <-chan error,
	frameValidator *validator.FrameValidator,
	statsHandler *stats.Handler,
	dlq *kafka.DLQPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) error {
	for {
		select {
		case <-ctx.Done():
			logger.Info("context cancelled, stopping processing")
			return nil
		case err := <-errorChan:
			if err != nil {
				logger.Error("consumer error", "error", err)
			}
		case consumed, ok := <-frameChan:
			if !ok {
				logger.Info("frame channel closed")
				return nil
			}

			topic := consumed.Metadata.Topic

			// Undecodable message: dead-letter and skip
			if consumed.Frame == nil {
				metrics.IncFramesDropped(topic, "parse_error")
				if dlq != nil {
					_ = dlq.Publish(ctx, consumed.Raw, consumed.Metadata, "parse_failed")
				}
				commitFrame(consumed, logger)
				continue
			}

			// Validate frame
			if err := frameValidator.Validate(consumed.Frame, consumed.Metadata.Offset); err != nil {
				logger.Warn("invalid frame",
					"topic", topic,
					"partition", consumed.Metadata.Partition,
					"offset", consumed.Metadata.Offset,
					"error", err,
				)

				metrics.IncFramesDropped(topic, "validation_failed")
				if dlq != nil {
					_ = dlq.Publish(ctx, consumed.Raw, consumed.Metadata, "validation_failed")
				}
				commitFrame(consumed, logger)
				continue
			}

			// Feed the statistics core
			start := time.Now()
			statsHandler.Ingest(consumed.Frame)
			metrics.ObserveIngestDuration(time.Since(start).Seconds())

			switch {
			case consumed.Frame.Image.IsDummy():
				metrics.IncFramesIngested(topic, "dummy")
			case consumed.Frame.Meta.IsHitFrame:
				metrics.IncFramesIngested(topic, "hit")
				metrics.HitFrames.Inc()
			default:
				metrics.IncFramesIngested(topic, "non_hit")
			}
			if consumed.Frame.Meta.IsGoodFrame != nil && !*consumed.Frame.Meta.IsGoodFrame {
				metrics.BadFrames.Inc()
			}

			commitFrame(consumed, logger)
		}
	}
}

func commitFrame(consumed *frame.ConsumedFrame, logger *slog.Logger) {
	if consumed.CommitFunc == nil {
		return
	}
	if err := consumed.CommitFunc(); err != nil {
		logger.Error("failed to commit offset",
			"topic", consumed.Metadata.Topic,
			"partition", consumed.Metadata.Partition,
			"offset", consumed.Metadata.Offset,
			"error", err,
		)
	}
}

// reportOccupancy refreshes buffer occupancy and bin count gauges.
func reportOccupancy(ctx context.Context, statsHandler *stats.Handler, metrics *observability.Metrics) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, count := range statsHandler.Occupancy() {
				metrics.SetRingOccupancy(name, float64(count))
			}
			metrics.BinsActive.Set(float64(statsHandler.Table().Len()))
		}
	}
}

// serviceHealth implements server.HealthChecker.
type serviceHealth struct {
	ready atomic.Bool
}

func (h *serviceHealth) setReady(ready bool) {
	h.ready.Store(ready)
}

func (h *serviceHealth) Liveness() bool {
	return true
}

func (h *serviceHealth) Readiness(ctx context.Context) bool {
	return h.ready.Load()
}

func (h *serviceHealth) IsHealthy() bool {
	return h.ready.Load()
}

func (h *serviceHealth) GetStatus() map[string]string {
	status := "ready"
	if !h.ready.Load() {
		status = "not ready"
	}
	return map[string]string{
		"consumer": status,
	}
}
