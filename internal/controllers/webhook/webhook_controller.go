package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DIMO-Network/cloudevent"
	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/DIMO-Network/ticker-relay/internal/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ModeSubscribe is the only hub.mode accepted by the verification handshake.
	ModeSubscribe = "subscribe"

	// EventSource is the cloud event source of dispatched webhook payloads.
	EventSource = "whatsapp"
	// EventType is the cloud event type of dispatched webhook payloads.
	EventType = "ticker-relay.webhook"
	// EventDataVersion versions the raw payload carried by dispatched events.
	EventDataVersion = "whatsapp.webhook/v1.0"

	signatureHeader = "X-Hub-Signature-256"
)

type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// WebhookController handles the messaging platform's webhook endpoints.
type WebhookController struct {
	publisher   Publisher
	topic       string
	verifyToken string
	appSecret   string
}

// NewWebhookController creates a new WebhookController that dispatches inbound payloads to topic.
func NewWebhookController(publisher Publisher, topic string, settings *config.Settings) *WebhookController {
	return &WebhookController{
		publisher:   publisher,
		topic:       topic,
		verifyToken: settings.VerifyToken,
		appSecret:   settings.AppSecret,
	}
}

// VerifyWebhook godoc
// @Summary      Verify webhook subscription
// @Description  Answers the messaging platform's verification handshake. Returns the challenge only when the mode is "subscribe" and the verify token matches the configured secret.
// @Tags         Webhooks
// @Produce      plain
// @Param        hub.mode          query     string  true  "Subscription mode, must be subscribe"
// @Param        hub.verify_token  query     string  true  "Verification secret"
// @Param        hub.challenge     query     string  true  "Challenge to echo back"
// @Success      200  {string}  string  "The challenge value"
// @Failure      403  "Verification failed"
// @Router       /webhook [get]
func (w *WebhookController) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	if !w.verify(mode, token) {
		zerolog.Ctx(c.UserContext()).Warn().Str("mode", mode).Msg("Webhook verification failed")
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.Status(fiber.StatusOK).SendString(c.Query("hub.challenge"))
}

func (w *WebhookController) verify(mode, token string) bool {
	if mode != ModeSubscribe || token == "" || w.verifyToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(w.verifyToken)) == 1
}

// ReceiveWebhook godoc
// @Summary      Receive webhook notification
// @Description  Acknowledges an inbound notification immediately and hands the payload off for background processing. The response never reflects the processing outcome.
// @Tags         Webhooks
// @Accept       json
// @Param        X-Hub-Signature-256  header  string  false  "sha256=<hex HMAC-SHA256 of the body>, required when an app secret is configured"
// @Param        request  body  object  true  "Webhook notification"
// @Success      200  "Notification received"
// @Failure      401  "Invalid payload signature"
// @Router       /webhook [post]
func (w *WebhookController) ReceiveWebhook(c *fiber.Ctx) error {
	logger := zerolog.Ctx(c.UserContext())
	body := c.Body()

	if w.appSecret != "" {
		if err := VerifySignature(w.appSecret, body, c.Get(signatureHeader)); err != nil {
			return richerrors.Error{
				ExternalMsg: "Invalid payload signature",
				Err:         err,
				Code:        fiber.StatusUnauthorized,
			}
		}
	}

	if !json.Valid(body) {
		logger.Warn().Int("size", len(body)).Msg("Ignoring webhook with a non-JSON body")
		return c.SendStatus(fiber.StatusOK)
	}

	msg, err := newWebhookMessage(body)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to wrap webhook payload")
		return c.SendStatus(fiber.StatusOK)
	}
	if err := w.publisher.Publish(w.topic, msg); err != nil {
		logger.Error().Err(err).Str("eventId", msg.UUID).Msg("Failed to dispatch webhook payload")
		return c.SendStatus(fiber.StatusOK)
	}

	logger.Debug().Str("eventId", msg.UUID).Msg("Webhook payload dispatched")
	return c.SendStatus(fiber.StatusOK)
}

// newWebhookMessage wraps a raw webhook body in a cloud event bus message.
// The body is copied since fiber reuses request buffers after the handler returns.
func newWebhookMessage(body []byte) (*message.Message, error) {
	event := cloudevent.CloudEvent[json.RawMessage]{
		CloudEventHeader: cloudevent.CloudEventHeader{
			ID:              uuid.New().String(),
			Source:          EventSource,
			Subject:         EventSource,
			Time:            time.Now().UTC(),
			DataContentType: fiber.MIMEApplicationJSON,
			DataVersion:     EventDataVersion,
			Type:            EventType,
			SpecVersion:     "1.0",
		},
		Data: json.RawMessage(append([]byte(nil), body...)),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cloud event: %w", err)
	}
	return message.NewMessage(event.ID, payload), nil
}
