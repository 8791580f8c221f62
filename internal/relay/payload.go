// Package relay holds the types shared between the webhook endpoints and the message listener.
package relay

import "strings"

// MessageTypeText is the message type carrying a plain text body.
const MessageTypeText = "text"

// InboundMessage is the part of an inbound webhook call the relay acts on.
type InboundMessage struct {
	// SenderID is the platform identifier of the user that sent the message.
	SenderID string
	// Text is the raw message body.
	Text string
}

// WebhookPayload is the notification body posted by the messaging platform.
type WebhookPayload struct {
	// Object is the subscribed object type (e.g. "whatsapp_business_account").
	Object string `json:"object"`
	// Entry holds one entry per business account.
	Entry []WebhookEntry `json:"entry"`
}

// WebhookEntry groups the changes for a single business account.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange is a single change notification.
type WebhookChange struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the messages (or delivery statuses) of a change.
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         ChangeMetadata   `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []Message        `json:"messages,omitempty"`
	Statuses         []map[string]any `json:"statuses,omitempty"`
}

// ChangeMetadata identifies the receiving business phone number.
type ChangeMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact is the profile of the user that sent a message.
type Contact struct {
	WaID    string         `json:"wa_id"`
	Profile ContactProfile `json:"profile"`
}

// ContactProfile holds the user's display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// Message is a single inbound message.
type Message struct {
	From      string    `json:"from"`
	ID        string    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Type      string    `json:"type"`
	Text      *TextBody `json:"text,omitempty"`
}

// TextBody is the body of a text message.
type TextBody struct {
	Body string `json:"body"`
}

// FirstMessage returns entry[0].changes[0].value.messages[0] if present.
func (p *WebhookPayload) FirstMessage() (Message, bool) {
	if p == nil || len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return Message{}, false
	}
	messages := p.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return Message{}, false
	}
	return messages[0], true
}

// InboundText returns the first message of the payload when it is a plain text message.
func (p *WebhookPayload) InboundText() (InboundMessage, bool) {
	msg, ok := p.FirstMessage()
	if !ok || msg.Type != MessageTypeText {
		return InboundMessage{}, false
	}
	in := InboundMessage{SenderID: strings.TrimSpace(msg.From)}
	if msg.Text != nil {
		in.Text = msg.Text.Body
	}
	return in, true
}
