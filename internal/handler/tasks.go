package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/calsync/internal/domain"
)

// Mirrorer keeps tasks and calendar events in step. Implemented by mirror.Engine.
type Mirrorer interface {
	MirrorTask(ctx context.Context, userID string, task *domain.Task) domain.MirrorResult
	UnmirrorTask(ctx context.Context, userID, taskID string) domain.MirrorResult
}

// TaskCalendarHandlers is the hook the task service calls after saving or deleting a task
type TaskCalendarHandlers struct {
	mirror Mirrorer
}

// NewTaskCalendarHandlers creates task calendar handlers
func NewTaskCalendarHandlers(mirror Mirrorer) *TaskCalendarHandlers {
	return &TaskCalendarHandlers{mirror: mirror}
}

// RecurrenceRequest mirrors domain.Recurrence on the wire
type RecurrenceRequest struct {
	Pattern string `json:"pattern" validate:"required,oneof=daily weekly monthly yearly"`
	Count   *int   `json:"count,omitempty" validate:"omitempty,min=1"`
	EndDate string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// TaskRequest is the task as saved by the task service
type TaskRequest struct {
	Text            string             `json:"text" validate:"required,max=1000"`
	DueDate         string             `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Completed       bool               `json:"completed"`
	AddToCalendar   bool               `json:"addToCalendar"`
	EventTime       string             `json:"eventTime,omitempty" validate:"clock"`
	EventDuration   int                `json:"eventDuration,omitempty" validate:"omitempty,min=1,max=1440"`
	ReminderMinutes *int               `json:"reminderMinutes,omitempty" validate:"omitempty,min=0,max=40320"`
	Recurrence      *RecurrenceRequest `json:"recurrence,omitempty"`
}

// MirrorResponse reports what happened to the calendar side of a task
type MirrorResponse struct {
	TaskID  string              `json:"taskId"`
	Status  domain.MirrorStatus `json:"status"`
	EventID string              `json:"eventId,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// HandleMirrorTask handles PUT /tasks/{taskId}/calendar.
// A degraded mirror still answers 200; the warning travels in the body.
func (h *TaskCalendarHandlers) HandleMirrorTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}
		taskID := chi.URLParam(r, "taskId")
		if taskID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestSummary)
			return
		}

		var req TaskRequest
		if err := DecodeAndValidateRequest(r, w, &req, ActionMirrorTask); err != nil {
			return
		}

		task, err := req.toTask(taskID, userID)
		if err != nil {
			respondServiceError(w, r, ActionMirrorTask, err)
			return
		}

		respondJSON(w, http.StatusOK, toMirrorResponse(h.mirror.MirrorTask(r.Context(), userID, task)))
	}
}

// HandleUnmirrorTask handles DELETE /tasks/{taskId}/calendar
func (h *TaskCalendarHandlers) HandleUnmirrorTask() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}
		taskID := chi.URLParam(r, "taskId")
		if taskID == "" {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestSummary)
			return
		}

		respondJSON(w, http.StatusOK, toMirrorResponse(h.mirror.UnmirrorTask(r.Context(), userID, taskID)))
	}
}

func (req *TaskRequest) toTask(taskID, userID string) (*domain.Task, error) {
	task := &domain.Task{
		ID:              taskID,
		UserID:          userID,
		Text:            req.Text,
		Completed:       req.Completed,
		AddToCalendar:   req.AddToCalendar,
		EventTime:       req.EventTime,
		DurationMinutes: req.EventDuration,
		ReminderMinutes: req.ReminderMinutes,
	}

	if req.DueDate != "" {
		due, err := time.Parse(time.DateOnly, req.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: dueDate", domain.ErrInvalidInput)
		}
		task.DueDate = &due
	}

	if req.Recurrence != nil {
		rec := &domain.Recurrence{Pattern: req.Recurrence.Pattern, Count: req.Recurrence.Count}
		if req.Recurrence.EndDate != "" {
			end, err := time.Parse(time.DateOnly, req.Recurrence.EndDate)
			if err != nil {
				return nil, fmt.Errorf("%w: recurrence endDate", domain.ErrInvalidInput)
			}
			rec.EndDate = &end
		}
		task.Recurrence = rec
	}

	return task, nil
}

func toMirrorResponse(res domain.MirrorResult) MirrorResponse {
	return MirrorResponse{
		TaskID:  res.TaskID,
		Status:  res.Status,
		EventID: res.EventID,
		Warning: res.Warning,
	}
}
