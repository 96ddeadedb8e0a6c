// Package main provides the course assistant server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martinvidela/cursobot-go/internal/bot"
	"github.com/martinvidela/cursobot-go/internal/buildinfo"
	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/channel"
	"github.com/martinvidela/cursobot-go/internal/channel/line"
	"github.com/martinvidela/cursobot-go/internal/channel/whatsapp"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/genai"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/martinvidela/cursobot-go/internal/objstore"
	"github.com/martinvidela/cursobot-go/internal/postprocess"
	"github.com/martinvidela/cursobot-go/internal/prompt"
	"github.com/martinvidela/cursobot-go/internal/rag"
	"github.com/martinvidela/cursobot-go/internal/ratelimit"
	"github.com/martinvidela/cursobot-go/internal/sentry"
	"github.com/martinvidela/cursobot-go/internal/session"
	"github.com/martinvidela/cursobot-go/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// outboundSendRatePerSec throttles channel API calls. Both the Cloud API
// and the Messaging API tolerate well below this.
const outboundSendRatePerSec = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterstackToken:    cfg.BetterstackToken,
		BetterstackEndpoint: cfg.BetterstackEndpoint,
	})
	log.Info("Starting course assistant server", "version", buildinfo.Version)

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	}
	defer sentry.Flush(2 * time.Second)

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Error("Failed to open catalog database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Catalog database opened")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	ctx := context.Background()

	// Load the catalog once at startup. A load failure is degraded mode,
	// not fatal: the assistant keeps answering, just without grounding data.
	courses := loadCatalog(ctx, cfg, db, m, log)

	var index *rag.CourseIndex
	if cfg.RAGHybrid {
		index = rag.NewCourseIndex(log)
		if err := index.Rebuild(courses); err != nil {
			log.WithError(err).Warn("Failed to build keyword index, hybrid retrieval disabled")
			index = nil
		}
	}
	retriever := rag.NewRetriever(index, cfg.RAGHybrid, log)

	sessions := session.NewStore(session.StoreConfig{
		IdleTTL:       cfg.Bot.SessionIdleTTL,
		SweepInterval: cfg.Bot.SessionSweepInterval,
		Metrics:       m,
	})
	defer sessions.Stop()

	responder, err := genai.CreateResponder(ctx, cfg, m)
	if err != nil {
		log.WithError(err).Error("Failed to create model responder")
		os.Exit(1)
	}
	if responder == nil {
		log.Warn("No model provider configured; only shortcut replies will work")
	} else {
		defer func() { _ = responder.Close() }()
	}

	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.Bot.UserRateLimitBurst,
		RefillRate:    cfg.Bot.UserRateLimitRefillPerSec,
		CleanupPeriod: time.Hour,
		Metrics:       m,
	})
	defer userLimiter.Stop()

	modelLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "model",
		Burst:         cfg.Bot.LLMBurstTokens,
		RefillRate:    cfg.Bot.LLMRefillPerHour / 3600.0,
		DailyLimit:    cfg.Bot.LLMDailyLimit,
		CleanupPeriod: time.Hour,
		Metrics:       m,
	})
	defer modelLimiter.Stop()

	style := postprocess.StyleAsterisk
	if cfg.Channel == "line" {
		style = postprocess.StylePlain
	}

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Courses:          db,
		Retriever:        retriever,
		Assembler:        prompt.NewAssembler(cfg.PromptRuleset),
		Responder:        responder,
		Sessions:         sessions,
		UserLimiter:      userLimiter,
		ModelLimiter:     modelLimiter,
		Style:            style,
		Logger:           log,
		Metrics:          m,
		PromptRuleset:    cfg.PromptRuleset,
		ModelCallTimeout: cfg.ModelCallTimeout,
	})

	// Channel wiring: one active adapter per process.
	var client channel.Client
	var whatsappHandler *whatsapp.Handler
	var lineHandler *line.Handler

	switch cfg.Channel {
	case "line":
		lineClient, err := line.NewClient(line.ClientConfig{
			ChannelToken:   cfg.LineChannelToken,
			Logger:         log,
			Metrics:        m,
			SendRatePerSec: outboundSendRatePerSec,
		})
		if err != nil {
			log.WithError(err).Error("Failed to create LINE client")
			os.Exit(1)
		}
		client = lineClient
		lineHandler = line.NewHandler(line.HandlerConfig{
			ChannelSecret:  cfg.LineChannelSecret,
			Client:         lineClient,
			Processor:      processor,
			ProcessTimeout: cfg.Bot.WebhookTimeout,
			Logger:         log,
			Metrics:        m,
		})
	default:
		whatsappClient := whatsapp.NewClient(whatsapp.ClientConfig{
			Token:          cfg.WhatsAppToken,
			PhoneID:        cfg.WhatsAppPhoneID,
			Logger:         log,
			Metrics:        m,
			SendRatePerSec: outboundSendRatePerSec,
		})
		client = whatsappClient
		whatsappHandler = whatsapp.NewHandler(whatsapp.HandlerConfig{
			VerifyToken:    cfg.WhatsAppVerifyToken,
			Client:         whatsappClient,
			Processor:      processor,
			ProcessTimeout: cfg.Bot.WebhookTimeout,
			Logger:         log,
			Metrics:        m,
		})
	}
	log.WithField("channel", client.Name()).Info("Channel adapter ready")

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware(log))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, routeDeps{
		cfg:             cfg,
		db:              db,
		registry:        registry,
		client:          client,
		whatsappHandler: whatsappHandler,
		lineHandler:     lineHandler,
		logger:          log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Let in-flight webhook batches finish before the deferred teardown
	waitDone := make(chan struct{})
	go func() {
		if whatsappHandler != nil {
			whatsappHandler.Wait()
		}
		if lineHandler != nil {
			lineHandler.Wait()
		}
		close(waitDone)
	}()

	select {
	case <-waitDone:
		log.Info("All in-flight events processed")
	case <-shutdownCtx.Done():
		log.Warn("Timeout waiting for in-flight events")
	}

	log.Info("Server stopped")
}

// loadCatalog resolves the configured source, loads and normalizes the
// catalog, and persists it. Any failure leaves the previous stored catalog
// in place and the process running.
func loadCatalog(ctx context.Context, cfg *config.Config, db *storage.DB, m *metrics.Metrics, log *logger.Logger) []catalog.Course {
	source, err := buildCatalogSource(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("Failed to resolve catalog source, running degraded")
		m.RecordCatalogLoad("none", "error", 0)
		return nil
	}

	courses, stats, err := catalog.Load(ctx, source)
	if err != nil {
		log.WithError(err).WithField("source", source.Name()).Error("Catalog load failed, running degraded")
		m.RecordCatalogLoad(source.Name(), "error", 0)
		return nil
	}

	for field, n := range stats.DroppedListEntries {
		m.RecordRecordDrop(field, n)
	}
	if stats.MissingIDs > 0 {
		log.WithField("missing_ids", stats.MissingIDs).Warn("Catalog records without id, positional ids assigned")
	}
	for _, merr := range stats.Malformed {
		log.WithError(merr).Warn("Malformed catalog entry, defaults applied")
	}

	if err := db.ReplaceAll(ctx, courses); err != nil {
		log.WithError(err).Error("Failed to persist catalog")
	}

	m.RecordCatalogLoad(source.Name(), "success", len(courses))
	log.WithField("source", source.Name()).
		WithField("records", stats.Records).
		WithField("courses", len(courses)).
		Info("Catalog loaded")
	return courses
}

// buildCatalogSource picks the first configured source: object-store
// snapshot, then URL, then local file.
func buildCatalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, error) {
	if cfg.CatalogSnapshotKey != "" && cfg.HasSnapshotStore() {
		store, err := objstore.New(ctx, objstore.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretKey,
			BucketName:  cfg.R2Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("create object store client: %w", err)
		}
		return &catalog.SnapshotSource{Store: store, Key: cfg.CatalogSnapshotKey}, nil
	}
	if cfg.CatalogURL != "" {
		return catalog.NewURLSource(cfg.CatalogURL, config.CatalogFetch), nil
	}
	return &catalog.FileSource{Path: cfg.CatalogPath}, nil
}
