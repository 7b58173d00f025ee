// Package storage implements S3 snapshot writer.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	exportenc "github.com/detkit/framestats/internal/export"
	"github.com/detkit/framestats/pkg/export"
	"github.com/detkit/framestats/pkg/frame"
)

// Ensure implementation satisfies interface at compile time.
var _ export.Writer = (*S3Writer)(nil)

// S3Config contains AWS S3 configuration.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	SSEEnabled   bool
	SSEKMSKeyID  string
}

// S3Writer implements export.Writer for AWS S3 storage.
// It provides multipart upload support, server-side encryption (SSE),
// and automatic retry handling for S3 operations.
type S3Writer struct {
	client         *s3.Client
	uploader       *manager.Uploader
	bucket         string
	region         string
	sseEnabled     bool
	sseKMSKeyID    string
	encoderFactory *exportenc.Factory
	logger         *slog.Logger
	metrics        MetricsCollector
	mu             sync.Mutex
}

// NewS3Writer creates a new S3 snapshot writer.
func NewS3Writer(
	cfg S3Config,
	format frame.SnapshotFormat,
	compression string,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*S3Writer, error) {
	// Load AWS config
	ctx := context.Background()
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Create S3 client
	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	// Create uploader with multipart upload support
	uploader := manager.NewUploader(s3Client, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB parts
		u.Concurrency = 5             // 5 concurrent uploads
	})

	// Create encoder factory
	encoderFactory := exportenc.NewFactory(format, compression)

	// Validate encoder can be created
	if _, err := encoderFactory.CreateEncoder(); err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	logger.Info("S3 snapshot writer created",
		"bucket", cfg.Bucket,
		"region", cfg.Region,
		"format", format,
		"compression", compression,
		"sse_enabled", cfg.SSEEnabled,
	)

	return &S3Writer{
		client:         s3Client,
		uploader:       uploader,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		sseEnabled:     cfg.SSEEnabled,
		sseKMSKeyID:    cfg.SSEKMSKeyID,
		encoderFactory: encoderFactory,
		logger:         logger,
		metrics:        metrics,
	}, nil
}

// Write writes a snapshot to S3.
func (w *S3Writer) Write(
	ctx context.Context,
	snapshot export.Snapshot,
	path string,
) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	startTime := time.Now()

	// Create encoder
	snapshotEncoder, err := w.encoderFactory.CreateEncoder()
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("s3", "encoder_create")
		}
		return 0, fmt.Errorf("failed to create encoder: %w", err)
	}

	// Generate timestamped filename: cbd_stats_YYYYMMDD_HHMMSS_NNN.{ext}
	now := time.Now()
	timestamp := now.Format("20060102_150405")
	filename := fmt.Sprintf("cbd_stats_%s_%03d%s", timestamp, now.Nanosecond()/1000000, snapshotEncoder.FileExtension())
	s3Key := extractS3Key(path) + filename
	s3Key = strings.TrimPrefix(s3Key, "/")

	// Encode to temporary file
	tempDir := os.TempDir()
	tempFile := filepath.Join(tempDir, fmt.Sprintf("s3-upload-%d%s", now.UnixNano(), snapshotEncoder.FileExtension()))

	stats, err := snapshotEncoder.Encode(tempFile, snapshot)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("s3", "encode")
		}
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	defer os.Remove(tempFile)

	// Open the file for upload
	file, err := os.Open(tempFile)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("s3", "file_open")
		}
		return 0, fmt.Errorf("failed to open encoded file: %w", err)
	}
	defer file.Close()

	// Prepare upload input
	uploadInput := &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(s3Key),
		Body:   file,
	}
	w.applySSE(uploadInput)

	// Upload to S3
	result, err := w.uploader.Upload(ctx, uploadInput)
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncExportErrors("s3", "upload")
		}
		return 0, fmt.Errorf("failed to upload to S3: %w", err)
	}

	duration := time.Since(startTime)

	w.logger.Info("wrote snapshot to S3",
		"bucket", w.bucket,
		"key", s3Key,
		"row_count", stats.RowCount,
		"file_size", stats.SizeBytes,
		"format", snapshotEncoder.Format(),
		"location", result.Location,
		"total_duration_ms", duration.Milliseconds(),
	)

	// Update metrics
	if w.metrics != nil {
		w.metrics.IncSnapshotsExported("s3", string(snapshotEncoder.Format()), "success")
		w.metrics.ObserveExportDuration("s3", string(snapshotEncoder.Format()), duration.Seconds())
	}

	return stats.SizeBytes, nil
}

// extractS3Key strips the s3://bucket/ prefix from a routed path, leaving
// only the object key prefix. Plain key paths pass through unchanged.
func extractS3Key(path string) string {
	if !strings.HasPrefix(path, "s3://") {
		return path
	}
	// Drop the protocol and the bucket segment
	parts := strings.SplitN(strings.TrimPrefix(path, "s3://"), "/", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

// applySSE sets server-side encryption on the upload: KMS when a key id is
// configured, AES256 otherwise, nothing when SSE is disabled.
func (w *S3Writer) applySSE(input *s3.PutObjectInput) {
	if !w.sseEnabled {
		return
	}
	if w.sseKMSKeyID != "" {
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(w.sseKMSKeyID)
		return
	}
	input.ServerSideEncryption = types.ServerSideEncryptionAes256
}

// Close closes the S3 writer.
func (w *S3Writer) Close() error {
	w.logger.Info("closing S3 snapshot writer")
	return nil
}
