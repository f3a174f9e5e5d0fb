package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"laundry-reservation-backend/config"
	"laundry-reservation-backend/internal/engine"
)

// ChatSender posts events to an external chat webhook with a bearer token.
// Delivery is best-effort: any failure is logged and dropped.
type ChatSender struct {
	cfg    config.ChatConfig
	client *http.Client
}

// NewChatSender creates a chat webhook sender.
func NewChatSender(cfg config.ChatConfig) *ChatSender {
	return &ChatSender{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type chatMessage struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}

// Send posts the event to the configured webhook.
func (c *ChatSender) Send(ctx context.Context, ev engine.Event) {
	if !c.cfg.Enabled || c.cfg.WebhookURL == "" {
		return
	}

	jsonBody, err := json.Marshal(chatMessage{
		Recipient: c.cfg.Recipient,
		Title:     ev.Title,
		Body:      ev.Body,
	})
	if err != nil {
		log.Printf("error encoding chat message for %s: %v", ev.Machine, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Printf("error building chat request for %s: %v", ev.Machine, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("chat webhook request failed for %s: %v", ev.Machine, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("chat webhook returned status %d for %s", resp.StatusCode, ev.Machine)
	}
}
