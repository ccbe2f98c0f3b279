package pubsub

import (
	"context"

	"github.com/charmbracelet/log"
)

// Noop is used when no GCP project is configured. It still encodes every
// message so payload errors surface the same way as with a real client.
type Noop struct{}

func NewNoop() PubSubClient {
	return Noop{}
}

func (Noop) SendMessage(_ context.Context, topic EventType, data any) error {
	if _, err := encode(data); err != nil {
		return err
	}
	log.Debug("Pubsub disabled, dropping message", "topic", topic)
	return nil
}

func (Noop) ProcessMessage(data []byte, returnValue any) error {
	return decode(data, returnValue)
}

func (Noop) Close() {}
