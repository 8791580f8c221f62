// Command messaging-sandbox stands in for the messaging platform during local runs.
// It captures the replies the relay sends and can post a simulated inbound text message.
//
// Point WA_API_URL at the sandbox, then run for example:
//
//	messaging-sandbox -relay-url http://localhost:8080/webhook -text PETR4
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DIMO-Network/ticker-relay/internal/controllers/webhook"
	"github.com/DIMO-Network/ticker-relay/internal/relay"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type outboundMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func main() {
	addr := flag.String("addr", ":8081", "address to capture outbound messages on")
	relayURL := flag.String("relay-url", "", "relay webhook URL to post a simulated message to")
	from := flag.String("from", "16505551234", "sender id of the simulated message")
	text := flag.String("text", "", "text of the simulated message")
	appSecret := flag.String("app-secret", "", "secret used to sign the simulated message")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to listen")
	}
	logger.Info().Str("addr", ln.Addr().String()).Msg("Capturing outbound messages")

	if *relayURL != "" && *text != "" {
		go func() {
			if err := postInbound(*relayURL, *appSecret, *from, *text); err != nil {
				logger.Error().Err(err).Msg("Failed to post simulated message")
				return
			}
			logger.Info().Str("from", *from).Str("text", *text).Msg("Posted simulated message")
		}()
	}

	if err := newSandboxApp(logger).Listener(ln); err != nil {
		logger.Fatal().Err(err).Msg("Sandbox stopped")
	}
}

func newSandboxApp(logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Post("/:phoneNumberID/messages", func(c *fiber.Ctx) error {
		var msg outboundMessage
		if err := json.Unmarshal(c.Body(), &msg); err != nil || msg.To == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fiber.Map{"message": "invalid message payload"}})
		}
		logger.Info().
			Str("phoneNumberId", c.Params("phoneNumberID")).
			Str("to", msg.To).
			Bool("bearerToken", strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")).
			Msgf("Reply received:\n%s", msg.Text.Body)
		return c.JSON(fiber.Map{
			"messaging_product": msg.MessagingProduct,
			"contacts":          []fiber.Map{{"input": msg.To, "wa_id": msg.To}},
			"messages":          []fiber.Map{{"id": "wamid." + uuid.NewString()}},
		})
	})
	return app
}

// newInboundPayload builds a webhook notification carrying a single text message.
func newInboundPayload(from, text string, now time.Time) ([]byte, error) {
	payload := relay.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []relay.WebhookEntry{{
			ID: "sandbox",
			Changes: []relay.WebhookChange{{
				Field: "messages",
				Value: relay.ChangeValue{
					MessagingProduct: "whatsapp",
					Messages: []relay.Message{{
						From:      from,
						ID:        "wamid." + uuid.NewString(),
						Timestamp: strconv.FormatInt(now.Unix(), 10),
						Type:      relay.MessageTypeText,
						Text:      &relay.TextBody{Body: text},
					}},
				},
			}},
		}},
	}
	return json.Marshal(payload)
}

func postInbound(relayURL, appSecret, from, text string) error {
	body, err := newInboundPayload(from, text, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build payload: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, relayURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if appSecret != "" {
		req.Header.Set("X-Hub-Signature-256", webhook.Sign(appSecret, body))
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to POST message: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned status code %d", resp.StatusCode)
	}
	return nil
}
