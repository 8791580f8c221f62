package messagesender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DIMO-Network/ticker-relay/internal/config"
	"github.com/DIMO-Network/ticker-relay/internal/relay"
)

const (
	// Default timeout for outbound message requests
	defaultSendTimeout = 10 * time.Second
	// Maximum response body size to read for error logging
	maxResponseBodySize = 1024

	messagingProduct = "whatsapp"
	recipientType    = "individual"
)

// textMessageRequest is the body of a text message send request.
type textMessageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// MessageSender delivers text replies through the messaging platform API.
type MessageSender struct {
	client        *http.Client
	apiURL        string
	phoneNumberID string
	accessToken   string
}

// NewMessageSender creates a new MessageSender. A nil client gets a default client with a bounded timeout.
func NewMessageSender(client *http.Client, settings *config.Settings) *MessageSender {
	if client == nil {
		client = &http.Client{
			Timeout: defaultSendTimeout,
		}
	}
	return &MessageSender{
		client:        client,
		apiURL:        strings.TrimRight(settings.MessagingAPIURL, "/"),
		phoneNumberID: settings.PhoneNumberID,
		accessToken:   settings.AccessToken,
	}
}

// SendText sends body as a text message to recipientID.
// Failures are returned as errors wrapping relay.ErrConfiguration, relay.ErrValidation or relay.ErrDelivery
// and are never retried.
func (s *MessageSender) SendText(ctx context.Context, recipientID string, body string) error {
	if s.phoneNumberID == "" || s.accessToken == "" {
		return fmt.Errorf("%w: messaging phone number id and access token are required", relay.ErrConfiguration)
	}
	if recipientID == "" {
		return fmt.Errorf("%w: recipient is empty", relay.ErrValidation)
	}

	payload, err := json.Marshal(textMessageRequest{
		MessagingProduct: messagingProduct,
		RecipientType:    recipientType,
		To:               recipientID,
		Type:             relay.MessageTypeText,
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	endpoint := s.apiURL + "/" + s.phoneNumberID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("%w: invalid messaging API URL: %w", relay.ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to POST message: %w", relay.ErrDelivery, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read response body for error details (limited size for security)
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		return fmt.Errorf("%w: messaging API returned status code %d: %s", relay.ErrDelivery, resp.StatusCode, string(respBody))
	}

	return nil
}
