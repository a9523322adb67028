package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"leavedesk/internal/domain/notifications"
	"leavedesk/internal/platform/config"
)

type noopPusher struct{}

func (noopPusher) Push(ctx context.Context, to, text string) error {
	return nil
}

// Client pushes text messages through the LINE Messaging API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func New(cfg config.Config) notifications.Pusher {
	if !cfg.LineEnabled || cfg.LineToken == "" {
		return noopPusher{}
	}
	return &Client{
		endpoint: cfg.LineEndpoint,
		token:    cfg.LineToken,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *Client) Push(ctx context.Context, to, text string) error {
	payload, err := json.Marshal(pushRequest{
		To:       to,
		Messages: []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line push failed: status %d: %s", resp.StatusCode, body)
	}
	return nil
}
