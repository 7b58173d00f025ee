package kafka

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// Ensure scramClient implements sarama.SCRAMClient.
var _ sarama.SCRAMClient = (*scramClient)(nil)

// scramClient adapts the xdg-go SCRAM implementation to the client
// interface Sarama expects for SASL/SCRAM broker authentication.
type scramClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

// newSCRAM256Client returns a SCRAM-SHA-256 client for Sarama.
func newSCRAM256Client() sarama.SCRAMClient {
	return &scramClient{HashGeneratorFcn: func() hash.Hash { return sha256.New() }}
}

// newSCRAM512Client returns a SCRAM-SHA-512 client for Sarama.
func newSCRAM512Client() sarama.SCRAMClient {
	return &scramClient{HashGeneratorFcn: func() hash.Hash { return sha512.New() }}
}

// Begin starts a SCRAM conversation with the broker.
func (c *scramClient) Begin(userName, password, authzID string) (err error) {
	c.Client, err = c.HashGeneratorFcn.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.ClientConversation = c.Client.NewConversation()
	return nil
}

// Step answers one broker challenge in the conversation.
func (c *scramClient) Step(challenge string) (response string, err error) {
	return c.ClientConversation.Step(challenge)
}

// Done reports whether the conversation has completed.
func (c *scramClient) Done() bool {
	return c.ClientConversation.Done()
}
