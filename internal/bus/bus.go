// Package bus provides the in-process message bus that decouples webhook acknowledgement from processing.
package bus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

const (
	// WebhookTopic carries raw inbound webhook payloads wrapped in cloud events.
	WebhookTopic = "whatsapp.webhooks"

	defaultBufferSize = 256
)

type Config struct {
	Topic      string
	BufferSize int64
}

// Bus is a topic-scoped wrapper around an in-memory watermill pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger *zerolog.Logger
}

func New(cfg Config, logger *zerolog.Logger) *Bus {
	if cfg.Topic == "" {
		cfg.Topic = WebhookTopic
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		},
		NewLogger(*logger),
	)
	return &Bus{
		pubsub: pubsub,
		topic:  cfg.Topic,
		logger: logger,
	}
}

// Topic returns the topic this bus publishes to and consumes from.
func (b *Bus) Topic() string {
	return b.topic
}

// Publish publishes messages to the given topic.
func (b *Bus) Publish(topic string, messages ...*message.Message) error {
	return b.pubsub.Publish(topic, messages...)
}

// Start subscribes to the bus topic and hands the message channel to process.
// The channel is closed once ctx is cancelled or the bus is closed.
func (b *Bus) Start(ctx context.Context, process func(messages <-chan *message.Message) error) error {
	messages, err := b.pubsub.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("could not subscribe to topic %s: %w", b.topic, err)
	}
	b.logger.Info().Str("topic", b.topic).Msg("Listening for webhook messages")
	return process(messages)
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
