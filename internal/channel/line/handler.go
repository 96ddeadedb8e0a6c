package line

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/martinvidela/cursobot-go/internal/bot"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/ctxutil"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/sentry"
)

// maxEventsPerWebhook bounds one webhook batch. The Messaging API sends at
// most 100 events per delivery; anything beyond that is not a real batch.
const maxEventsPerWebhook = 100

// Handler terminates the LINE webhook.
type Handler struct {
	channelSecret  string
	client         *Client
	processor      *bot.Processor
	processTimeout time.Duration
	logger         *logger.Logger
	metrics        *metrics.Metrics
	wg             sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler.
type HandlerConfig struct {
	ChannelSecret  string
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
		channelSecret:  cfg.ChannelSecret,
		client:         cfg.Client,
		processor:      cfg.Processor,
		processTimeout: cfg.ProcessTimeout,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// HandleWebhook is the gin handler for inbound events. Signature
// verification happens in ParseRequest; the batch is ACKed immediately and
// processed asynchronously.
func (h *Handler) HandleWebhook(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.logger.Warn("Invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.logger.WithError(err).Error("Failed to parse webhook request")
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.Status(http.StatusOK)

	events := cb.Events
	if len(events) > maxEventsPerWebhook {
		h.logger.WithField("event_count", len(events)).Warn("Too many events in webhook batch; truncating")
		events = events[:maxEventsPerWebhook]
	}

	turns := extractTurns(events)
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

// extractTurns keeps the text message events and flattens them into
// inbound turns. LINE never redelivers a bot its own messages, so nothing
// here is self-originated.
func extractTurns(events []webhook.EventInterface) []bot.InboundTurn {
	var turns []bot.InboundTurn
	for _, event := range events {
		msgEvent, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		textMsg, ok := msgEvent.Message.(webhook.TextMessageContent)
		if !ok {
			continue
		}
		chatID := chatIDFromSource(msgEvent.Source)
		if chatID == "" {
			continue
		}
		turns = append(turns, bot.InboundTurn{
			ConversationID: chatID,
			Text:           textMsg.Text,
		})
	}
	return turns
}

// chatIDFromSource extracts the conversation id from a LINE source: user
// id for personal chats, group or room id otherwise.
func chatIDFromSource(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.GroupId
	case webhook.RoomSource:
		return s.RoomId
	}
	return ""
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
