// Package main provides the course assistant server entry point.
package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/martinvidela/cursobot-go/internal/channel"
	"github.com/martinvidela/cursobot-go/internal/channel/line"
	"github.com/martinvidela/cursobot-go/internal/channel/whatsapp"
	"github.com/martinvidela/cursobot-go/internal/config"
	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/sliceutil"
	"github.com/martinvidela/cursobot-go/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeDeps struct {
	cfg             *config.Config
	db              *storage.DB
	registry        *prometheus.Registry
	client          channel.Client
	whatsappHandler *whatsapp.Handler // nil unless channel is whatsapp
	lineHandler     *line.Handler     // nil unless channel is line
	logger          *logger.Logger
}

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, deps routeDeps) {
	// Liveness probe: process is up, nothing else
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe: database reachable plus catalog and channel state
	readyHandler := func(c *gin.Context) {
		count, err := deps.db.Count(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"channel": deps.client.Name(),
			"catalog": gin.H{
				"courses":  count,
				"degraded": count == 0,
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Inbound webhooks for the active channel
	if deps.whatsappHandler != nil {
		router.GET("/webhook/whatsapp", deps.whatsappHandler.HandleVerify)
		router.POST("/webhook/whatsapp", deps.whatsappHandler.HandleWebhook)
	}
	if deps.lineHandler != nil {
		router.POST("/webhook/line", deps.lineHandler.HandleWebhook)
	}

	// Outbound REST API, bearer-token guarded
	api := router.Group("/api/v1", bearerAuthMiddleware(deps.cfg.APIToken))
	api.POST("/send", sendHandler(deps))
	api.POST("/broadcast", broadcastHandler(deps))
	api.GET("/courses", searchCoursesHandler(deps))
	api.GET("/courses/:id", courseByIDHandler(deps))

	// Prometheus metrics, basic-auth guarded when credentials are set
	metricsHandler := gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))
	if deps.cfg.MetricsPassword != "" {
		router.GET("/metrics", gin.BasicAuth(gin.Accounts{
			deps.cfg.MetricsUsername: deps.cfg.MetricsPassword,
		}), metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}

// bearerAuthMiddleware guards the outbound API. With no token configured
// the API is disabled rather than open.
func bearerAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "api disabled"})
			return
		}
		header := c.GetHeader("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || got != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

type sendRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
}

func sendHandler(deps routeDeps) gin.HandlerFunc {
	wrap := apperrors.NewWrapper("api", "send")
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := wrap.Wrapf(deps.client.SendText(c.Request.Context(), req.To, req.Text), "delivery to %s failed", req.To); err != nil {
			deps.logger.WithError(err).Error("API send failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": apperrors.GetUserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}

// searchCoursesLimit caps one catalog search response.
const searchCoursesLimit = 20

func searchCoursesHandler(deps routeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		term := c.Query("q")
		courses, err := deps.db.SearchByName(c.Request.Context(), term, searchCoursesLimit)
		if errors.Is(err, apperrors.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
			return
		}
		if err != nil {
			deps.logger.WithError(err).Error("API course search failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": courses, "count": len(courses)})
	}
}

func courseByIDHandler(deps routeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := deps.db.ByID(c.Request.Context(), c.Param("id"))
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		if err != nil {
			deps.logger.WithError(err).Error("API course lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		c.JSON(http.StatusOK, course)
	}
}

type broadcastRequest struct {
	To   []string `json:"to"`
	Text string   `json:"text" binding:"required"`
}

func broadcastHandler(deps routeDeps) gin.HandlerFunc {
	wrap := apperrors.NewWrapper("api", "broadcast")
	return func(c *gin.Context) {
		var req broadcastRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Repeated recipients would double-send on channels that fan out
		// push-by-push.
		recipients := sliceutil.Deduplicate(req.To, func(s string) string { return s })

		if err := wrap.Wrap(deps.client.Broadcast(c.Request.Context(), recipients, req.Text), "broadcast delivery failed"); err != nil {
			deps.logger.WithError(err).Error("API broadcast failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": apperrors.GetUserMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent", "recipients": len(recipients)})
	}
}
