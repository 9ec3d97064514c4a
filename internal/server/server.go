package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/calsync/internal/database"
	"github.com/osse101/calsync/internal/handler"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
)

// Config holds the HTTP server settings
type Config struct {
	Port           int
	APIKey         string
	TrustedProxies []string
	// WebhookRate is requests per second per IP on the public webhook route.
	WebhookRate  float64
	WebhookBurst int
}

// Handlers groups the calendar endpoints the router mounts
type Handlers struct {
	Integrations *handler.IntegrationHandlers
	Tasks        *handler.TaskCalendarHandlers
	Webhooks     *handler.WebhookHandler
}

// Server is the calendar sync HTTP API
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(cfg Config, dbPool database.Pool, h Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, dbPool, h),
			ReadHeaderTimeout: ReadHeaderTimeout,
		},
	}
}

// NewRouter builds the route tree. Chi middleware executes in the order
// defined, outermost first.
func NewRouter(cfg Config, dbPool database.Pool, h Handlers) http.Handler {
	if cfg.WebhookRate <= 0 {
		cfg.WebhookRate = DefaultWebhookRate
	}
	if cfg.WebhookBurst <= 0 {
		cfg.WebhookBurst = DefaultWebhookBurst
	}

	r := chi.NewRouter()

	r.Use(loggingMiddleware)
	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(cfg.APIKey, cfg.TrustedProxies, NewFailedAuthDetector()))
	r.Use(RequestSizeLimitMiddleware(MaxRequestBodyBytes))
	r.Use(metrics.Middleware)

	r.Get(PathHealthz, handler.HandleHealthz())
	r.Get(PathReadyz, handler.HandleReadyz(dbPool))
	r.Get(PathVersion, handler.HandleVersion())
	r.Handle(PathMetrics, promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route(PathIntegrationBase, func(r chi.Router) {
			r.Get("/", h.Integrations.HandleGetStatus())
			r.Patch("/", h.Integrations.HandleSetDefaultCalendar())
			r.Delete("/", h.Integrations.HandleDisconnect())
			r.Get("/auth", h.Integrations.HandleGetAuthURL())
			r.Post("/auth", h.Integrations.HandleCompleteAuth())
			r.Get("/callback", h.Integrations.HandleCallback())
			r.Get("/availability", h.Integrations.HandleAvailability())
		})

		r.Route("/tasks/{taskId}/calendar", func(r chi.Router) {
			r.Put("/", h.Tasks.HandleMirrorTask())
			r.Delete("/", h.Tasks.HandleUnmirrorTask())
		})

		webhookLimiter := NewIPRateLimiter(cfg.WebhookRate, cfg.WebhookBurst)
		r.With(RateLimitMiddleware(webhookLimiter, cfg.TrustedProxies)).
			Post(strings.TrimPrefix(PathWebhook, "/api/v1"), h.Webhooks.HandleNotification())
	})

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// sensitiveHeaders are replaced with RedactedValue before logging
var sensitiveHeaders = []string{HeaderAPIKey, HeaderAuthorization, HeaderChannelToken}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, PathHealthz) ||
			strings.HasPrefix(r.URL.Path, PathReadyz) ||
			strings.HasPrefix(r.URL.Path, PathMetrics) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength)

		headers := r.Header.Clone()
		for _, name := range sensitiveHeaders {
			if headers.Get(name) != "" {
				headers.Set(name, RedactedValue)
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", headers)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start serves until Stop is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	logger.FromContext(context.Background()).Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
