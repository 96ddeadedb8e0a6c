package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/martinvidela/cursobot-go/internal/errors"
	"github.com/martinvidela/cursobot-go/internal/logger"
	"github.com/martinvidela/cursobot-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func testClient(t *testing.T, graphURL string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		Token:    "test-token",
		PhoneID:  "12345",
		GraphURL: graphURL,
		Logger:   logger.New("error"),
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
}

func TestHandleVerify(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	h := NewHandler(HandlerConfig{
		VerifyToken: "secreto",
		Logger:      logger.New("error"),
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})

	// Route through an engine so gin writes the handler's status out.
	router := gin.New()
	router.GET("/webhook/whatsapp", h.HandleVerify)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid handshake echoes challenge",
			query:      "hub.mode=subscribe&hub.verify_token=secreto&hub.challenge=42",
			wantStatus: http.StatusOK,
			wantBody:   "42",
		},
		{
			name:       "wrong token rejected",
			query:      "hub.mode=subscribe&hub.verify_token=otro&hub.challenge=42",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong mode rejected",
			query:      "hub.mode=unsubscribe&hub.verify_token=secreto&hub.challenge=42",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/webhook/whatsapp?"+tt.query, nil)

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestExtractTurns(t *testing.T) {
	t.Parallel()

	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"metadata": {"display_phone_number": "5491100000000", "phone_number_id": "12345"},
					"messages": [
						{"from": "5491155554444", "id": "wamid.1", "type": "text", "text": {"body": "hola, qué cursos hay?"}},
						{"from": "5491155554444", "id": "wamid.2", "type": "image"},
						{"from": "5491100000000", "id": "wamid.3", "type": "text", "text": {"body": "eco propio"}}
					]
				}
			}]
		}]
	}`

	var payload webhookPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	h := NewHandler(HandlerConfig{
		PhoneNumber: "5491100000000",
		Logger:      logger.New("error"),
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})

	turns := h.extractTurns(payload)
	if len(turns) != 2 {
		t.Fatalf("extracted %d turns, want 2 (image dropped)", len(turns))
	}
	if turns[0].ConversationID != "5491155554444" || turns[0].Text != "hola, qué cursos hay?" {
		t.Errorf("turn[0] = %+v", turns[0])
	}
	if turns[0].IsSelfOriginated {
		t.Error("inbound user message flagged self-originated")
	}
	if !turns[1].IsSelfOriginated {
		t.Error("own-number message not flagged self-originated")
	}
}

func TestSendText(t *testing.T) {
	t.Parallel()

	var gotAuth atomic.Value
	var gotBody atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/12345/messages" {
			t.Errorf("path = %q, want /12345/messages", r.URL.Path)
		}
		gotAuth.Store(r.Header.Get("Authorization"))
		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		gotBody.Store(req)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if err := c.SendText(context.Background(), "5491155554444", "¡Hola!"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	if auth := gotAuth.Load(); auth != "Bearer test-token" {
		t.Errorf("Authorization = %v", auth)
	}
	req := gotBody.Load().(sendRequest)
	if req.MessagingProduct != "whatsapp" || req.Type != "text" {
		t.Errorf("envelope = %+v", req)
	}
	if req.To != "5491155554444" || req.Text.Body != "¡Hola!" {
		t.Errorf("message = %+v", req)
	}
}

func TestSendText_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid token"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if err := c.SendText(context.Background(), "5491155554444", "hola"); err == nil {
		t.Error("SendText() expected error on 401, got nil")
	}
}

func TestSendText_RateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"too many requests"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	err := c.SendText(context.Background(), "5491155554444", "hola")
	if !errors.Is(err, apperrors.ErrRateLimitExceeded) {
		t.Errorf("SendText() error = %v, want ErrRateLimitExceeded", err)
	}
}

func TestBroadcast(t *testing.T) {
	t.Parallel()

	var sends atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		sends.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	recipients := []string{"111", "222", "333", "444", "555"}
	if err := c.Broadcast(context.Background(), recipients, "Nuevo curso disponible"); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if got := sends.Load(); got != int64(len(recipients)) {
		t.Errorf("sends = %d, want %d", got, len(recipients))
	}

	if err := c.Broadcast(context.Background(), nil, "sin destinatarios"); err != nil {
		t.Errorf("Broadcast(nil) error = %v", err)
	}
}

func TestHandleWebhook_RecoversAsyncPanic(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	// A nil processor makes the async worker panic on the first turn.
	// The worker must recover and report instead of taking the process
	// down with it.
	h := NewHandler(HandlerConfig{
		Logger:  logger.New("error"),
		Metrics: metrics.New(prometheus.NewRegistry()),
	})
	router := gin.New()
	router.POST("/webhook/whatsapp", h.HandleWebhook)

	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"changes": [{
				"value": {
					"metadata": {"display_phone_number": "5491100000000", "phone_number_id": "12345"},
					"messages": [{"from": "5491155554444", "id": "wamid.9", "type": "text", "text": {"body": "hola"}}]
				}
			}]
		}]
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (ACK before processing)", w.Code)
	}

	// Returns only after the recover ran; an unrecovered panic would
	// crash the test binary instead.
	h.Wait()
}
