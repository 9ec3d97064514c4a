package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/oauth"
)

// IntegrationService connects users to the calendar provider. Implemented by oauth.Service.
type IntegrationService interface {
	AuthURL(userID string) (string, error)
	Complete(ctx context.Context, userID, code, state string) ([]domain.RemoteCalendar, error)
	Status(ctx context.Context, userID string) (*oauth.Status, error)
	SetDefaultCalendar(ctx context.Context, userID, calendarID string) error
	Disconnect(ctx context.Context, userID string) error
}

// AvailabilityService answers free/busy questions. Implemented by availability.Checker.
type AvailabilityService interface {
	Check(ctx context.Context, userID, date, startTime, endTime string) (*domain.Availability, error)
}

// IntegrationHandlers serves the Google Calendar integration endpoints
type IntegrationHandlers struct {
	svc          IntegrationService
	availability AvailabilityService
	appURL       string
}

// NewIntegrationHandlers creates integration handlers. appURL is the
// frontend base the OAuth callback redirects to.
func NewIntegrationHandlers(svc IntegrationService, availability AvailabilityService, appURL string) *IntegrationHandlers {
	return &IntegrationHandlers{svc: svc, availability: availability, appURL: strings.TrimRight(appURL, "/")}
}

// AuthURLResponse carries the consent screen address
type AuthURLResponse struct {
	AuthURL string `json:"authUrl"`
}

// CompleteAuthRequest is the body of POST .../auth
type CompleteAuthRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

// CompleteAuthResponse lists the calendars a default can be chosen from
type CompleteAuthResponse struct {
	Success   bool                    `json:"success"`
	Calendars []domain.RemoteCalendar `json:"calendars"`
}

// SetDefaultCalendarRequest is the body of PATCH on the integration
type SetDefaultCalendarRequest struct {
	DefaultCalendarID string `json:"defaultCalendarId"`
}

// HandleGetAuthURL handles GET /integrations/google-calendar/auth
func (h *IntegrationHandlers) HandleGetAuthURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		authURL, err := h.svc.AuthURL(userID)
		if err != nil {
			respondServiceError(w, r, ActionAuthURL, err)
			return
		}
		respondJSON(w, http.StatusOK, AuthURLResponse{AuthURL: authURL})
	}
}

// HandleCompleteAuth handles POST /integrations/google-calendar/auth
func (h *IntegrationHandlers) HandleCompleteAuth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		var req CompleteAuthRequest
		if err := DecodeAndValidateRequest(r, w, &req, ActionCompleteAuth); err != nil {
			return
		}

		calendars, err := h.svc.Complete(r.Context(), userID, req.Code, req.State)
		if err != nil {
			respondServiceError(w, r, ActionCompleteAuth, err)
			return
		}
		if calendars == nil {
			calendars = []domain.RemoteCalendar{}
		}
		respondJSON(w, http.StatusOK, CompleteAuthResponse{Success: true, Calendars: calendars})
	}
}

// HandleCallback handles GET /integrations/google-calendar/callback.
// The provider redirects the browser here; the frontend finishes the exchange.
func (h *IntegrationHandlers) HandleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")

		q := url.Values{}
		if code == "" || state == "" {
			q.Set("error", CallbackErrorMissingParams)
		} else {
			q.Set("code", code)
			q.Set("state", state)
			q.Set("integration", CallbackIntegrationName)
		}
		http.Redirect(w, r, h.appURL+SettingsPath+"?"+q.Encode(), http.StatusFound)
	}
}

// HandleGetStatus handles GET /integrations/google-calendar
func (h *IntegrationHandlers) HandleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		status, err := h.svc.Status(r.Context(), userID)
		if err != nil {
			respondServiceError(w, r, ActionStatus, err)
			return
		}
		respondJSON(w, http.StatusOK, status)
	}
}

// HandleSetDefaultCalendar handles PATCH /integrations/google-calendar
func (h *IntegrationHandlers) HandleSetDefaultCalendar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		var req SetDefaultCalendarRequest
		if err := DecodeAndValidateRequest(r, w, &req, ActionSetDefault); err != nil {
			return
		}
		if strings.TrimSpace(req.DefaultCalendarID) == "" {
			respondError(w, http.StatusBadRequest, ErrMsgDefaultRequired)
			return
		}

		if err := h.svc.SetDefaultCalendar(r.Context(), userID, req.DefaultCalendarID); err != nil {
			respondServiceError(w, r, ActionSetDefault, err)
			return
		}
		respondSuccess(w)
	}
}

// HandleDisconnect handles DELETE /integrations/google-calendar
func (h *IntegrationHandlers) HandleDisconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		if err := h.svc.Disconnect(r.Context(), userID); err != nil {
			respondServiceError(w, r, ActionDisconnect, err)
			return
		}
		respondSuccess(w)
	}
}

// HandleAvailability handles GET /integrations/google-calendar/availability?date&startTime&endTime
func (h *IntegrationHandlers) HandleAvailability() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		date, ok := GetQueryParam(r, w, "date")
		if !ok {
			return
		}
		startTime, ok := GetQueryParam(r, w, "startTime")
		if !ok {
			return
		}
		endTime, ok := GetQueryParam(r, w, "endTime")
		if !ok {
			return
		}

		result, err := h.availability.Check(r.Context(), userID, date, startTime, endTime)
		if err != nil {
			respondServiceError(w, r, ActionAvailability, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
