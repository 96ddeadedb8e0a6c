// Package whatsapp adapts the WhatsApp Cloud API: webhook verification and
// event intake on the inbound side, Graph API sends on the outbound side.
// Everything here is glue; message semantics live in the bot package.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

// DefaultGraphURL is the Meta Graph API base for the Cloud API.
const DefaultGraphURL = "https://graph.facebook.com/v21.0"

// broadcastConcurrency bounds parallel sends during a broadcast fan-out.
const broadcastConcurrency = 4

// ClientConfig holds outbound Cloud API configuration.
type ClientConfig struct {
	Token    string // Graph API bearer token
	PhoneID  string // Sender phone number id
	GraphURL string // Defaults to DefaultGraphURL; tests point it elsewhere
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	// Outbound throttle, tokens per second. Zero disables throttling.
	SendRatePerSec float64
}

// Client sends text messages through the Cloud API.
type Client struct {
	token    string
	phoneID  string
	graphURL string
	http     *http.Client
	limiter  *ratelimit.OutboundRateLimiter
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewClient creates a Cloud API client.
func NewClient(cfg ClientConfig) *Client {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = DefaultGraphURL
	}

	var limiter *ratelimit.OutboundRateLimiter
	if cfg.SendRatePerSec > 0 {
		limiter = ratelimit.NewOutboundRateLimiter(cfg.SendRatePerSec, cfg.SendRatePerSec)
	}

	return &Client{
		token:    cfg.Token,
		phoneID:  cfg.PhoneID,
		graphURL: graphURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		limiter:  limiter,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Name identifies the channel in logs and metrics.
func (c *Client) Name() string { return "whatsapp" }

// sendRequest is the Cloud API message envelope.
type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             sendText `json:"text"`
}

type sendText struct {
	Body string `json:"body"`
}

// SendText delivers a plain text message to one conversation.
func (c *Client) SendText(ctx context.Context, to string, text string) error {
	if c.limiter != nil {
		if err := c.limiter.WaitForToken(ctx); err != nil {
			return fmt.Errorf("whatsapp: wait for send slot: %w", err)
		}
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             sendText{Body: text},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordOutbound(c.Name(), "error")
		return fmt.Errorf("whatsapp: send to %s: %w", to, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.metrics.RecordOutbound(c.Name(), "error")
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("whatsapp: send to %s: %w: %s", to, apperrors.ErrRateLimitExceeded, string(body))
		}
		return fmt.Errorf("whatsapp: send to %s: status %d: %s", to, resp.StatusCode, string(body))
	}

	c.metrics.RecordOutbound(c.Name(), "success")
	return nil
}

// Broadcast fans the same text out to every listed conversation. Sends run
// in parallel but bounded; the first failure cancels the rest.
func (c *Client) Broadcast(ctx context.Context, to []string, text string) error {
	if len(to) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastConcurrency)
	for _, recipient := range to {
		g.Go(func() error {
			return c.SendText(gctx, recipient, text)
		})
	}
	return g.Wait()
}
