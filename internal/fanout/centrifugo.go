package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client publishes through the realtime server's HTTP API.
type Client struct {
	address   string
	apiKey    string
	pluginURL string
	http      *http.Client
}

func NewClient(address, apiKey, pluginURL string) *Client {
	return &Client{
		address:   address,
		apiKey:    apiKey,
		pluginURL: pluginURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type command struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

func (c *Client) Publish(ctx context.Context, channel string, event Event, data any) error {
	envelope := Envelope{
		Status:    http.StatusOK,
		Event:     event,
		PluginURL: c.pluginURL,
		Data:      data,
	}
	return c.send(ctx, command{
		Method: "publish",
		Params: map[string]any{
			"channel": channel,
			"data":    envelope,
		},
	})
}

func (c *Client) Unsubscribe(ctx context.Context, memberID, channel string) error {
	return c.send(ctx, command{
		Method: "unsubscribe",
		Params: map[string]any{
			"channel": channel,
			"user":    memberID,
		},
	})
}

func (c *Client) send(ctx context.Context, cmd command) error {
	encoded, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send %s command: %w", cmd.Method, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("%s command rejected: %d %s", cmd.Method, res.StatusCode, body)
	}
	return nil
}
