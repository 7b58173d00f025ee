package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/detkit/framestats/pkg/frame"
)

func TestDLQPublisher_Disabled(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	publisher, err := NewDLQPublisher(
		[]string{"localhost:9092"},
		ConsumerConfig{SecurityProtocol: "PLAINTEXT"},
		DLQConfig{Enabled: false},
		logger,
		"framestats-1",
	)
	if err != nil {
		t.Fatalf("NewDLQPublisher() error = %v", err)
	}

	// Publishing with DLQ disabled is a no-op.
	metadata := frame.StreamMetadata{Topic: "detector-frames", Partition: 0, Offset: 100}
	if err := publisher.Publish(context.Background(), []byte("{}"), metadata, "parse_failed"); err != nil {
		t.Errorf("Publish() error = %v with DLQ disabled, want nil", err)
	}

	if err := publisher.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDLQPublisher_CloseIdempotent(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	publisher, err := NewDLQPublisher(
		nil,
		ConsumerConfig{SecurityProtocol: "PLAINTEXT"},
		DLQConfig{Enabled: false},
		logger,
		"framestats-1",
	)
	if err != nil {
		t.Fatalf("NewDLQPublisher() error = %v", err)
	}

	if err := publisher.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := publisher.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestDLQMessage_Serialization(t *testing.T) {
	raw := json.RawMessage(`{"metadata": {"pulse_id": 1}}`)

	msg := DLQMessage{
		OriginalMessage:   raw,
		OriginalTopic:     "detector-frames",
		OriginalPartition: 2,
		OriginalOffset:    1234,
		FailureReason:     "validation_failed",
		FailureTimestamp:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		ProcessorID:       "framestats-1",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to marshal DLQ message: %v", err)
	}

	var decoded DLQMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal DLQ message: %v", err)
	}

	if decoded.OriginalTopic != "detector-frames" {
		t.Errorf("OriginalTopic = %s, want detector-frames", decoded.OriginalTopic)
	}
	if decoded.OriginalOffset != 1234 {
		t.Errorf("OriginalOffset = %d, want 1234", decoded.OriginalOffset)
	}
	if decoded.FailureReason != "validation_failed" {
		t.Errorf("FailureReason = %s, want validation_failed", decoded.FailureReason)
	}
	if string(decoded.OriginalMessage) != string(raw) {
		t.Errorf("OriginalMessage = %s, want %s", decoded.OriginalMessage, raw)
	}
}

func TestDLQTopicName(t *testing.T) {
	tests := []struct {
		name        string
		sourceTopic string
		suffix      string
		want        string
	}{
		{"standard suffix", "detector-frames", ".dlq", "detector-frames.dlq"},
		{"custom suffix", "frames", "-dead-letter", "frames-dead-letter"},
		{"topic with dots", "beamline.detector.frames", ".dlq", "beamline.detector.frames.dlq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sourceTopic + tt.suffix; got != tt.want {
				t.Errorf("DLQ topic = %s, want %s", got, tt.want)
			}
		})
	}
}
