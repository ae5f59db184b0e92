package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/teemow/meetbook/internal/logging"
	"github.com/teemow/meetbook/internal/meeting"
	"github.com/teemow/meetbook/internal/scheduling"
)

const (
	maxRequestBody = 64 << 10

	msgInvalidJSON     = "Invalid JSON data received."
	msgScheduleFailed  = "An error occurred while scheduling the meeting. Please try again."
	msgInternalFailure = "An internal error occurred. Check logs for details."
)

// Scheduler accepts visitor scheduling requests.
type Scheduler interface {
	Schedule(ctx context.Context, req meeting.Request) (*scheduling.Confirmation, error)
}

// Admin runs operator actions on stored meetings.
type Admin interface {
	GenerateLinks(ctx context.Context, ids []int64) scheduling.Summary
	GenerateMissing(ctx context.Context) (scheduling.Summary, error)
	MarkStatus(ctx context.Context, ids []int64, status meeting.Status) (int, error)
}

// MeetingLister lists stored meetings.
type MeetingLister interface {
	List(ctx context.Context, filter meeting.ListFilter) ([]meeting.Meeting, error)
}

// Handlers serves the scheduling and admin routes.
type Handlers struct {
	scheduler Scheduler
	admin     Admin
	meetings  MeetingLister
	location  *time.Location
	logger    *slog.Logger
}

// NewHandlers creates Handlers. Meeting times in admin listings are shown in loc.
func NewHandlers(scheduler Scheduler, admin Admin, meetings MeetingLister, loc *time.Location, logger *slog.Logger) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	return &Handlers{
		scheduler: scheduler,
		admin:     admin,
		meetings:  meetings,
		location:  loc,
		logger:    logging.WithComponent(logger, "http"),
	}
}

type scheduleResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message,omitempty"`
	MeetingID int64             `json:"meeting_id,omitempty"`
	MeetURL   string            `json:"meet_url,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// ScheduleMeeting handles POST /schedule-meeting.
func (h *Handlers) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	var req meeting.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, scheduleResponse{Message: msgInvalidJSON})
		return
	}

	conf, err := h.scheduler.Schedule(r.Context(), req)
	if err != nil {
		var ve *meeting.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, scheduleResponse{Errors: ve.Fields})
			return
		}
		h.logger.Error("failed to schedule meeting", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, scheduleResponse{Message: msgScheduleFailed})
		return
	}

	writeJSON(w, http.StatusOK, scheduleResponse{
		Success:   true,
		Message:   conf.Message,
		MeetingID: conf.MeetingID,
		MeetURL:   conf.URL,
	})
}

// meetingView is the admin listing row.
type meetingView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Topic       string    `json:"topic"`
	Notes       string    `json:"notes,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	StartsAt    time.Time `json:"starts_at"`
	Status      string    `json:"status"`
	StatusLabel string    `json:"status_label"`
	MeetURL     string    `json:"meet_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListMeetings handles GET /admin/meetings.
func (h *Handlers) ListMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter meeting.ListFilter
	filter.MissingLink, _ = strconv.ParseBool(q.Get("missing_link"))
	if s := q.Get("status"); s != "" {
		status, err := meeting.ParseStatus(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
			return
		}
		filter.Status = status
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}

	meetings, err := h.meetings.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list meetings", logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": msgInternalFailure})
		return
	}

	views := make([]meetingView, 0, len(meetings))
	for i := range meetings {
		m := &meetings[i]
		views = append(views, meetingView{
			ID:          m.ID,
			Name:        m.Name,
			Email:       m.Email,
			Topic:       m.Topic,
			Notes:       m.Notes,
			Date:        m.Date.String(),
			Time:        m.Time.String(),
			StartsAt:    m.StartsAt(h.location),
			Status:      string(m.Status),
			StatusLabel: m.Status.Label(),
			MeetURL:     m.MeetURL,
			CreatedAt:   m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "meetings": views})
}

type generateLinksRequest struct {
	IDs        []int64 `json:"ids"`
	AllMissing bool    `json:"all_missing"`
}

type summaryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	scheduling.Summary
}

// GenerateLinks handles POST /admin/meetings/generate-links.
func (h *Handlers) GenerateLinks(w http.ResponseWriter, r *http.Request) {
	var req generateLinksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msgInvalidJSON})
		return
	}

	var summary scheduling.Summary
	switch {
	case req.AllMissing:
		var err error
		summary, err = h.admin.GenerateMissing(r.Context())
		if err != nil {
			h.logger.Error("failed to generate missing links", logging.Err(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": msgInternalFailure})
			return
		}
	case len(req.IDs) > 0:
		summary = h.admin.GenerateLinks(r.Context(), req.IDs)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "ids or all_missing is required"})
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Success: summary.Errored == 0,
		Message: summary.String(),
		Summary: summary,
	})
}

type markStatusRequest struct {
	IDs    []int64 `json:"ids"`
	Status string  `json:"status"`
}

// MarkStatus handles POST /admin/meetings/status.
func (h *Handlers) MarkStatus(w http.ResponseWriter, r *http.Request) {
	var req markStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msgInvalidJSON})
		return
	}
	if len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "ids is required"})
		return
	}
	status, err := meeting.ParseStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
		return
	}

	updated, err := h.admin.MarkStatus(r.Context(), req.IDs, status)
	resp := map[string]any{
		"success": err == nil,
		"updated": updated,
		"message": fmt.Sprintf("%d meeting(s) marked as %s.", updated, status),
	}
	if err != nil {
		h.logger.Warn("some meetings were not updated", logging.Status(string(status)), logging.Err(err))
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
