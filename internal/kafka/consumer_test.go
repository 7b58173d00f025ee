package kafka

import (
	"testing"

	"github.com/IBM/sarama"
)

func TestOffsetInitial(t *testing.T) {
	tests := []struct {
		name   string
		offset string
		want   int64
	}{
		{"earliest", "earliest", sarama.OffsetOldest},
		{"latest", "latest", sarama.OffsetNewest},
		{"empty defaults to latest", "", sarama.OffsetNewest},
		{"unknown defaults to latest", "bogus", sarama.OffsetNewest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := offsetInitial(tt.offset); got != tt.want {
				t.Errorf("offsetInitial(%q) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestConfigureSecurity_Plaintext(t *testing.T) {
	saramaConfig := sarama.NewConfig()
	config := ConsumerConfig{SecurityProtocol: "PLAINTEXT"}

	if err := configureSecurity(saramaConfig, config); err != nil {
		t.Fatalf("configureSecurity() error = %v", err)
	}
	if saramaConfig.Net.SASL.Enable {
		t.Error("SASL should not be enabled for PLAINTEXT")
	}
	if saramaConfig.Net.TLS.Enable {
		t.Error("TLS should not be enabled for PLAINTEXT")
	}
}

func TestConfigureSecurity_SASLMechanisms(t *testing.T) {
	tests := []struct {
		name      string
		mechanism string
		wantErr   bool
		wantType  sarama.SASLMechanism
	}{
		{"plain", "PLAIN", false, sarama.SASLTypePlaintext},
		{"scram-sha-256", "SCRAM-SHA-256", false, sarama.SASLTypeSCRAMSHA256},
		{"scram-sha-512", "SCRAM-SHA-512", false, sarama.SASLTypeSCRAMSHA512},
		{"aws msk iam", "AWS_MSK_IAM", false, sarama.SASLTypeOAuth},
		{"unsupported", "GSSAPI", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saramaConfig := sarama.NewConfig()
			config := ConsumerConfig{
				SecurityProtocol: "SASL_PLAINTEXT",
				SASLMechanism:    tt.mechanism,
				SASLUsername:     "user",
				SASLPassword:     "pass",
			}

			err := configureSecurity(saramaConfig, config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("configureSecurity() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("configureSecurity() error = %v", err)
			}
			if !saramaConfig.Net.SASL.Enable {
				t.Error("SASL should be enabled")
			}
			if saramaConfig.Net.SASL.Mechanism != tt.wantType {
				t.Errorf("SASL mechanism = %v, want %v", saramaConfig.Net.SASL.Mechanism, tt.wantType)
			}
		})
	}
}

func TestConfigureSecurity_SASLSSLEnablesTLS(t *testing.T) {
	saramaConfig := sarama.NewConfig()
	config := ConsumerConfig{
		SecurityProtocol: "SASL_SSL",
		SASLMechanism:    "PLAIN",
		SASLUsername:     "user",
		SASLPassword:     "pass",
	}

	if err := configureSecurity(saramaConfig, config); err != nil {
		t.Fatalf("configureSecurity() error = %v", err)
	}
	if !saramaConfig.Net.TLS.Enable {
		t.Error("TLS should be enabled for SASL_SSL")
	}
}

func TestConfigureSecurity_UnsupportedProtocol(t *testing.T) {
	saramaConfig := sarama.NewConfig()
	config := ConsumerConfig{SecurityProtocol: "KERBEROS"}

	if err := configureSecurity(saramaConfig, config); err == nil {
		t.Error("configureSecurity() error = nil for unsupported protocol, want error")
	}
}

func TestParseFrame(t *testing.T) {
	handler := &consumerGroupHandler{}

	payload := []byte(`{
		"metadata": {
			"pulse_id": 12345,
			"is_hit_frame": true,
			"number_of_streaks": 3,
			"streak_lengths": [1.5, 2.5, 3.0],
			"bragg_counts": [10, 20]
		},
		"image": {
			"shape": [512, 1024],
			"dtype": "uint16"
		}
	}`)

	f, err := handler.parseFrame(&sarama.ConsumerMessage{Value: payload})
	if err != nil {
		t.Fatalf("parseFrame() error = %v", err)
	}

	if f.Meta.PulseID == nil || *f.Meta.PulseID != 12345 {
		t.Errorf("PulseID = %v, want 12345", f.Meta.PulseID)
	}
	if !f.Meta.IsHitFrame {
		t.Error("IsHitFrame = false, want true")
	}
	if f.Meta.NumberOfStreaks == nil || *f.Meta.NumberOfStreaks != 3 {
		t.Errorf("NumberOfStreaks = %v, want 3", f.Meta.NumberOfStreaks)
	}
	if len(f.Meta.BraggCounts) != 2 {
		t.Errorf("BraggCounts = %v, want 2 entries", f.Meta.BraggCounts)
	}
	if len(f.Image.Shape) != 2 || f.Image.Shape[0] != 512 {
		t.Errorf("Image.Shape = %v, want [512 1024]", f.Image.Shape)
	}
}

func TestParseFrame_MissingOptionalFields(t *testing.T) {
	handler := &consumerGroupHandler{}

	payload := []byte(`{"metadata": {"is_hit_frame": false}, "image": {"shape": [2, 2]}}`)

	f, err := handler.parseFrame(&sarama.ConsumerMessage{Value: payload})
	if err != nil {
		t.Fatalf("parseFrame() error = %v", err)
	}

	if f.Meta.PulseID != nil {
		t.Errorf("PulseID = %v, want nil", f.Meta.PulseID)
	}
	if !f.Image.IsDummy() {
		t.Error("2x2 frame should be a dummy frame")
	}
}

func TestParseFrame_InvalidJSON(t *testing.T) {
	handler := &consumerGroupHandler{}

	if _, err := handler.parseFrame(&sarama.ConsumerMessage{Value: []byte("not json")}); err == nil {
		t.Error("parseFrame() error = nil for invalid payload, want error")
	}
}

func TestExtractHeaders(t *testing.T) {
	handler := &consumerGroupHandler{}

	headers := []*sarama.RecordHeader{
		{Key: []byte("source"), Value: []byte("detector-1")},
		{Key: []byte("run_id"), Value: []byte("42")},
	}

	got := handler.extractHeaders(headers)
	if len(got) != 2 {
		t.Fatalf("len(headers) = %d, want 2", len(got))
	}
	if got["source"] != "detector-1" {
		t.Errorf("headers[source] = %s, want detector-1", got["source"])
	}
	if got["run_id"] != "42" {
		t.Errorf("headers[run_id] = %s, want 42", got["run_id"])
	}
}
