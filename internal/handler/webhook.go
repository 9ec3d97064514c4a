package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/logger"
	"github.com/osse101/calsync/internal/metrics"
	"github.com/osse101/calsync/internal/worker"
)

// Headers the provider sends with every push notification
const (
	HeaderGoogChannelID     = "X-Goog-Channel-ID"
	HeaderGoogChannelToken  = "X-Goog-Channel-Token"
	HeaderGoogResourceID    = "X-Goog-Resource-ID"
	HeaderGoogResourceState = "X-Goog-Resource-State"
	HeaderGoogMessageNumber = "X-Goog-Message-Number"
)

// stateMalformed labels notifications refused before their state could be read
const stateMalformed = "malformed"

// InlineNotificationBudget bounds a notification processed on the request
// path because the worker queue was full.
const InlineNotificationBudget = 5 * time.Second

// Enqueuer accepts background jobs without blocking. Implemented by worker.Pool.
type Enqueuer interface {
	TryEnqueue(job worker.Job) error
}

// NotificationRequest is the JSON form of a push notification
type NotificationRequest struct {
	ChannelID     string `json:"channelId" validate:"required,max=256"`
	ResourceID    string `json:"resourceId" validate:"max=256"`
	ResourceState string `json:"resourceState" validate:"required,resourcestate"`
	ChannelToken  string `json:"channelToken,omitempty" validate:"max=512"`
	MessageNumber string `json:"messageNumber,omitempty"`
	EventID       string `json:"eventId,omitempty" validate:"max=1024"`
}

// WebhookHandler receives calendar push notifications and hands them to the worker pool
type WebhookHandler struct {
	queue   Enqueuer
	handler worker.NotificationHandler
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(queue Enqueuer, handler worker.NotificationHandler) *WebhookHandler {
	return &WebhookHandler{queue: queue, handler: handler}
}

// HandleNotification handles POST /webhooks/google-calendar.
// Every well-formed notification is acknowledged with 200; only a malformed
// one is refused. When the queue is full the notification is processed inline
// within InlineNotificationBudget and acknowledged regardless of the outcome.
func (h *WebhookHandler) HandleNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		req, err := readNotification(r)
		if err != nil {
			log.Warn(ErrMsgNotificationRejected, "error", err)
			metrics.WebhookNotifications.WithLabelValues(stateMalformed, metrics.OutcomeRejected).Inc()
			respondError(w, http.StatusBadRequest, ErrMsgNotificationRejected)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			log.Warn(ErrMsgNotificationRejected, "channel_id", req.ChannelID, "resource_state", req.ResourceState)
			metrics.WebhookNotifications.WithLabelValues(stateMalformed, metrics.OutcomeRejected).Inc()
			respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:  ErrMsgNotificationRejected,
				Fields: FormatValidationError(err),
			})
			return
		}

		job := &worker.NotificationJob{
			Handler: h.handler,
			Notification: domain.Notification{
				ChannelID:     req.ChannelID,
				ResourceID:    req.ResourceID,
				ResourceState: domain.ResourceState(req.ResourceState),
				ChannelToken:  req.ChannelToken,
				MessageNumber: req.MessageNumber,
				EventID:       req.EventID,
			},
			RequestID: logger.GetRequestID(r.Context()),
		}
		if err := h.queue.TryEnqueue(job); err != nil {
			log.Warn(LogMsgNotificationInline, "channel_id", req.ChannelID, "error", err)
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), InlineNotificationBudget)
			defer cancel()
			if err := job.Process(ctx); err != nil {
				log.Error(LogMsgNotificationFailed, "channel_id", req.ChannelID, "error", err)
			}
			respondSuccess(w)
			return
		}

		log.Debug(LogMsgNotificationQueued, "channel_id", req.ChannelID, "resource_state", req.ResourceState)
		respondSuccess(w)
	}
}

// readNotification prefers the provider's headers and falls back to a JSON body
func readNotification(r *http.Request) (*NotificationRequest, error) {
	if channelID := r.Header.Get(HeaderGoogChannelID); channelID != "" {
		return &NotificationRequest{
			ChannelID:     channelID,
			ResourceID:    r.Header.Get(HeaderGoogResourceID),
			ResourceState: strings.ToLower(r.Header.Get(HeaderGoogResourceState)),
			ChannelToken:  r.Header.Get(HeaderGoogChannelToken),
			MessageNumber: r.Header.Get(HeaderGoogMessageNumber),
		}, nil
	}

	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	if req.ChannelToken == "" {
		req.ChannelToken = r.Header.Get(HeaderGoogChannelToken)
	}
	return &req, nil
}
