// Package line adapts the LINE Messaging API as a secondary channel:
// webhook parsing on the inbound side, push and broadcast on the outbound
// side. LINE renders no inline emphasis, so the server pairs this adapter
// with the plain rewrite style.
package line

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/ratelimit"
)

// ClientConfig holds outbound Messaging API configuration.
type ClientConfig struct {
	ChannelToken string
	Logger       *logger.Logger
	Metrics      *metrics.Metrics

	// Outbound throttle, tokens per second. Zero disables throttling.
	SendRatePerSec float64
}

// Client sends text messages through the Messaging API.
type Client struct {
	api     *messaging_api.MessagingApiAPI
	limiter *ratelimit.OutboundRateLimiter
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewClient creates a Messaging API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("line: create messaging API client: %w", err)
	}

	var limiter *ratelimit.OutboundRateLimiter
	if cfg.SendRatePerSec > 0 {
		limiter = ratelimit.NewOutboundRateLimiter(cfg.SendRatePerSec, cfg.SendRatePerSec)
	}

	return &Client{
		api:     api,
		limiter: limiter,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Name identifies the channel in logs and metrics.
func (c *Client) Name() string { return "line" }

// SendText pushes a plain text message to one chat.
func (c *Client) SendText(ctx context.Context, to string, text string) error {
	if c.limiter != nil {
		if err := c.limiter.WaitForToken(ctx); err != nil {
			return fmt.Errorf("line: wait for send slot: %w", err)
		}
	}

	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: text}},
	}, "")
	if err != nil {
		c.metrics.RecordOutbound(c.Name(), "error")
		return fmt.Errorf("line: push to %s: %w", to, err)
	}

	c.metrics.RecordOutbound(c.Name(), "success")
	return nil
}

// Broadcast delivers the same text to every listed chat, or to all
// followers when the list is empty (the Messaging API broadcast call).
func (c *Client) Broadcast(ctx context.Context, to []string, text string) error {
	if len(to) == 0 {
		if c.limiter != nil {
			if err := c.limiter.WaitForToken(ctx); err != nil {
				return fmt.Errorf("line: wait for send slot: %w", err)
			}
		}
		_, err := c.api.Broadcast(&messaging_api.BroadcastRequest{
			Messages: []messaging_api.MessageInterface{&messaging_api.TextMessage{Text: text}},
		}, "")
		if err != nil {
			c.metrics.RecordOutbound(c.Name(), "error")
			return fmt.Errorf("line: broadcast: %w", err)
		}
		c.metrics.RecordOutbound(c.Name(), "success")
		return nil
	}

	for _, recipient := range to {
		if err := c.SendText(ctx, recipient, text); err != nil {
			return err
		}
	}
	return nil
}
