// Package consumer defines interfaces for frame stream consumption.
//
// This package provides abstractions for consuming detector frames from
// Kafka and managing consumer lifecycle.
package consumer

import (
	"context"

	"github.com/detkit/framestats/pkg/frame"
)

// Consumer reads frame messages from Kafka topics.
type Consumer interface {
	// Subscribe subscribes to one or more topics.
	Subscribe(ctx context.Context, topics []string) error

	// Consume starts consuming messages from subscribed topics.
	// Returns channels for frames and errors.
	Consume(ctx context.Context) (<-chan *frame.ConsumedFrame, <-chan error, error)

	// Commit commits the offset for a partition.
	Commit(ctx context.Context, partition frame.PartitionID, offset int64) error

	// Close closes the consumer and releases resources.
	Close() error
}

// DLQPublisher publishes undecodable or invalid frame messages to a dead
// letter queue.
type DLQPublisher interface {
	// Publish sends a raw frame message to the DLQ with error information.
	Publish(ctx context.Context, raw []byte, metadata frame.StreamMetadata, reason string) error

	// Close closes the publisher and releases resources.
	Close() error
}
