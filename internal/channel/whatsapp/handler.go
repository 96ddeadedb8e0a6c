package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/martinvidela/cursobot-go/internal/bot"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/ctxutil"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/sentry"
)

// webhookPayload is the Cloud API webhook envelope, reduced to the fields
// the pipeline consumes. Status updates and non-text messages parse to
// nothing and are dropped.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					DisplayPhoneNumber string `json:"display_phone_number"`
					PhoneNumberID      string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Handler terminates the Cloud API webhook.
type Handler struct {
	verifyToken    string
	phoneNumber    string // Our own number; messages from it are self-originated
	client         *Client
	processor      *bot.Processor
	processTimeout time.Duration
	logger         *logger.Logger
	metrics        *metrics.Metrics
	wg             sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	VerifyToken    string
	PhoneNumber    string
	Client         *Client
	Processor      *bot.Processor
	ProcessTimeout time.Duration // Budget for processing one inbound event
	Logger         *logger.Logger
	Metrics        *metrics.Metrics
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = config.WebhookProcessing
	}
	return &Handler{
		verifyToken:    cfg.VerifyToken,
		phoneNumber:    cfg.PhoneNumber,
		client:         cfg.Client,
		processor:      cfg.Processor,
		processTimeout: cfg.ProcessTimeout,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// HandleVerify answers the Cloud API subscription handshake (webhook GET).
func (h *Handler) HandleVerify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.Warn("Webhook verification rejected")
		c.Status(http.StatusForbidden)
		return
	}

	c.String(http.StatusOK, challenge)
}

// HandleWebhook is the gin handler for inbound events (webhook POST).
// It ACKs immediately and processes the batch asynchronously; the Cloud
// API redelivers on non-200 responses, so a slow model call must never
// hold the response open.
func (h *Handler) HandleWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Warn("Malformed webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	c.Status(http.StatusOK)

	turns := h.extractTurns(payload)
	if len(turns) == 0 {
		return
	}

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in async event processing: %v", r)
				h.logger.WithField("panic", r).Error("Panic in async event processing")
				sentry.CaptureException(err)
			}
		}()

		for _, turn := range turns {
			h.processTurn(context.Background(), turn)
		}
	})
}

// extractTurns flattens the webhook envelope into inbound turns.
func (h *Handler) extractTurns(payload webhookPayload) []bot.InboundTurn {
	var turns []bot.InboundTurn
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" {
					continue
				}
				turns = append(turns, bot.InboundTurn{
					ConversationID:   msg.From,
					Text:             msg.Text.Body,
					IsSelfOriginated: h.phoneNumber != "" && msg.From == h.phoneNumber,
				})
			}
		}
	}
	return turns
}

func (h *Handler) processTurn(ctx context.Context, turn bot.InboundTurn) {
	ctx, cancel := context.WithTimeout(ctx, h.processTimeout)
	defer cancel()

	start := time.Now()
	requestID := uuid.New().String()
	ctx = ctxutil.WithRequestID(ctx, requestID)
	ctx = ctxutil.WithChannel(ctx, h.client.Name())
	log := h.logger.WithRequestID(requestID).WithConversationID(turn.ConversationID)

	reply, ok := h.processor.HandleMessage(ctx, turn)

	status := "success"
	if ok {
		if err := h.client.SendText(ctx, turn.ConversationID, reply); err != nil {
			status = "error"
			log.WithError(err).Error("Failed to deliver reply")
		}
	}
	h.metrics.RecordWebhook(h.client.Name(), status, time.Since(start).Seconds())
}

// Wait blocks until all in-flight event batches finish. Used on shutdown.
func (h *Handler) Wait() {
	h.wg.Wait()
}
