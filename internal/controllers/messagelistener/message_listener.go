package messagelistener

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DIMO-Network/cloudevent"
	"github.com/DIMO-Network/ticker-relay/internal/clients/quote"
	"github.com/DIMO-Network/ticker-relay/internal/config"
	"github.com/DIMO-Network/ticker-relay/internal/relay"
	"github.com/DIMO-Network/ticker-relay/internal/ticker"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// processingTimeout bounds the work done for a single inbound message.
const processingTimeout = 30 * time.Second

type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (quote.Outcome, error)
}

type MessageSender interface {
	SendText(ctx context.Context, recipientID string, body string) error
}

// MessageListener turns dispatched webhook payloads into quote replies.
type MessageListener struct {
	quotes        QuoteProvider
	sender        MessageSender
	defaultSuffix string
	cooldown      time.Duration
	timeout       time.Duration
}

// NewMessageListener creates a new MessageListener.
func NewMessageListener(quotes QuoteProvider, sender MessageSender, settings *config.Settings) *MessageListener {
	return &MessageListener{
		quotes:        quotes,
		sender:        sender,
		defaultSuffix: settings.DefaultTickerSuffix,
		cooldown:      settings.RateLimitCooldown,
		timeout:       processingTimeout,
	}
}

// ProcessWebhookMessages consumes dispatched webhook events until ctx is cancelled or messages is closed.
// Each message is acked on receipt and processed in its own goroutine; in-flight work is awaited before returning.
func (m *MessageListener) ProcessWebhookMessages(ctx context.Context, messages <-chan *message.Message) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				// channel is closed
				return nil
			}
			msg.Ack()
			wg.Go(func() {
				m.processMessage(ctx, msg)
			})
		}
	}
}

// processMessage runs detached from ctx cancellation so shutdown does not cut off an acknowledged message.
func (m *MessageListener) processMessage(ctx context.Context, msg *message.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	logger := zerolog.Ctx(ctx).With().Str("eventId", msg.UUID).Logger()
	ctx = logger.WithContext(ctx)

	var event cloudevent.CloudEvent[json.RawMessage]
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Error().Err(err).Msg("failed to decode webhook event")
		return
	}
	m.ProcessPayload(ctx, event.Data)
}

// ProcessPayload handles one raw webhook body. Nothing happens unless the payload carries a text message.
// Failures never escape: they are logged and, where a sender is known, answered with an apology.
func (m *MessageListener) ProcessPayload(ctx context.Context, raw json.RawMessage) {
	logger := zerolog.Ctx(ctx)

	var payload relay.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// A type mismatch still decodes the fields around it, so the sender may be known.
		if msg, ok := payload.FirstMessage(); ok && msg.Type == relay.MessageTypeText {
			m.handleError(ctx, strings.TrimSpace(msg.From), fmt.Errorf("failed to decode text message: %w", err))
			return
		}
		logger.Warn().Err(err).Msg("ignoring malformed webhook payload")
		return
	}
	inbound, ok := payload.InboundText()
	if !ok {
		logger.Debug().Msg("webhook carries no text message")
		return
	}
	if inbound.SenderID == "" {
		logger.Warn().Msg("ignoring text message without a sender")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			m.handleError(ctx, inbound.SenderID, fmt.Errorf("panic while processing message: %v", r))
		}
	}()
	m.handleError(ctx, inbound.SenderID, m.handleMessage(ctx, inbound))
}

func (m *MessageListener) handleMessage(ctx context.Context, inbound relay.InboundMessage) error {
	text := strings.TrimSpace(inbound.Text)
	if text == "" {
		return m.sender.SendText(ctx, inbound.SenderID, promptReply)
	}

	symbol, _ := ticker.Normalize(text, m.defaultSuffix)
	if err := ticker.Validate(symbol); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("rejected ticker input")
		return m.sender.SendText(ctx, inbound.SenderID, invalidTickerReply(text))
	}

	outcome, err := m.quotes.FetchQuote(ctx, symbol)
	if err != nil {
		if relay.IsProviderError(err) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("symbol", symbol).Msg("quote provider failed")
			return m.sender.SendText(ctx, inbound.SenderID, providerFailureReply(symbol))
		}
		return fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}

	var body string
	switch o := outcome.(type) {
	case quote.Found:
		body = FormatQuote(o.Quote)
	case quote.NotFound:
		body = notFoundReply(symbol)
	case quote.RateLimited:
		zerolog.Ctx(ctx).Warn().Str("symbol", symbol).Str("note", o.Message).Msg("quote provider is rate limiting")
		retryAfter := o.RetryAfter
		if retryAfter <= 0 {
			retryAfter = m.cooldown
		}
		body = rateLimitedReply(retryAfter)
	default:
		return fmt.Errorf("unexpected quote outcome %T", outcome)
	}
	return m.sender.SendText(ctx, inbound.SenderID, body)
}

// handleError is the boundary for everything that happens after a webhook was acknowledged.
func (m *MessageListener) handleError(ctx context.Context, senderID string, err error) {
	if err == nil {
		return
	}
	logger := zerolog.Ctx(ctx)
	if relay.IsDeliveryError(err) || relay.IsConfigurationError(err) {
		logger.Error().Err(err).Msg("failed to reply to message")
		return
	}

	logger.Error().Err(err).Msg("unexpected failure while processing message")
	if senderID == "" {
		return
	}
	m.sendApology(ctx, senderID)
}

func (m *MessageListener) sendApology(ctx context.Context, senderID string) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Debug().Msgf("apology send panicked: %v", r)
		}
	}()
	if err := m.sender.SendText(ctx, senderID, apologyReply); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("apology send failed")
	}
}
