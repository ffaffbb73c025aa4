// Package notify is the best-effort client for the notification
// trigger service. A failed trigger never fails the mutation that
// produced it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	KindDirectMessage  = "direct-message"
	KindChannelMessage = "channel-message"
)

// Payload is the notification body shown to recipients.
type Payload struct {
	SenderName  string `json:"senderName"`
	ChannelName string `json:"channelName,omitempty"`
	MessageBody string `json:"messageBody"`
}

// Trigger asks the service to notify the listed members.
type Trigger struct {
	Name    string   `json:"name"`
	Payload Payload  `json:"payload"`
	To      []string `json:"to"`
}

// Triggerer is what the message engine depends on.
type Triggerer interface {
	Trigger(ctx context.Context, t Trigger) error
}

// Client posts triggers to the notification service.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Trigger(ctx context.Context, t Trigger) error {
	if len(t.To) == 0 {
		return nil
	}
	encoded, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events/trigger", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send trigger: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return fmt.Errorf("trigger rejected: %d", res.StatusCode)
	}
	return nil
}
