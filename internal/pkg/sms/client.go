package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

// Config holds SMS gateway configuration
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is an HTTP client for the SMS/WhatsApp gateway.
type Client struct {
	httpClient *http.Client
	config     Config
}

type sendRequest struct {
	To       string `json:"to"`
	Body     string `json:"body"`
	MediaURL string `json:"media_url,omitempty"`
}

type sendResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// NewClient creates a new gateway client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// Send attempts delivery of one message to one recipient. Gateway errors
// are reported in the Result, never as a panic or a partial write; the
// caller decides what to do with failed recipients.
func (c *Client) Send(ctx context.Context, recipient, body, mediaURL string) Result {
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return Result{Recipient: recipient, Status: StatusFailed, Error: "sms gateway not configured"}
	}

	payload, err := json.Marshal(sendRequest{To: recipient, Body: body, MediaURL: mediaURL})
	if err != nil {
		return Result{Recipient: recipient, Status: StatusFailed, Error: fmt.Sprintf("encode request: %v", err)}
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/v1/messages"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return Result{Recipient: recipient, Status: StatusFailed, Error: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("recipient", recipient).Msg("SMS gateway call failed")
		return Result{Recipient: recipient, Status: StatusFailed, Error: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("recipient", recipient).
			Str("body", string(respBody)).
			Msg("SMS gateway rejected message")
		return Result{Recipient: recipient, Status: StatusFailed, Error: fmt.Sprintf("gateway status %d", resp.StatusCode)}
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.Error != "" {
		return Result{Recipient: recipient, Status: StatusFailed, Error: parsed.Error}
	}

	return Result{Recipient: recipient, Status: StatusSent}
}
