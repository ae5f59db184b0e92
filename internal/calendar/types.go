package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/meetbook/internal/google"
)

// Method identifies how a meeting link was produced.
type Method string

const (
	// MethodCalendarAPI means the link came from a created calendar event.
	MethodCalendarAPI Method = "calendar_api"

	// MethodFallback means the link was synthesized locally.
	MethodFallback Method = "fallback"
)

const (
	// EventDuration is the length of every scheduled meeting.
	EventDuration = time.Hour

	// DefaultCalendarID is the calendar events are inserted into.
	DefaultCalendarID = "primary"

	// DefaultTimeZone is the zone requested dates and times are read in.
	DefaultTimeZone = "Asia/Kolkata"

	// conferenceSolution is the conference type requested from Calendar.
	conferenceSolution = "hangoutsMeet"
)

// ErrNoJoinURL is reported when a created event carries neither a video
// entry point nor a web link.
var ErrNoJoinURL = errors.New("created event has no join url")

// ErrNoCredential is reported when CreateEvent is called without a credential.
var ErrNoCredential = errors.New("no credential supplied")

// MeetingEvent is the input for creating a calendar event with a Meet conference.
type MeetingEvent struct {
	Title          string
	Date           civil.Date
	Time           civil.Time
	RequesterEmail string
	Notes          string

	// IdempotencyKey becomes the conference requestId. Retrying with the same
	// key lets Calendar return the conference it already created.
	IdempotencyKey string
}

// EventResult is the outcome of one attempt to produce a meeting link.
// A result whose Method is MethodCalendarAPI and Success is false carries no
// usable URL.
type EventResult struct {
	URL          string
	Method       Method
	EventID      string
	CalendarLink string
	Success      bool
	Err          error
}

// RemoteAPIError wraps a failure talking to the Calendar API.
type RemoteAPIError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *RemoteAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar %s failed (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Operation, e.Err)
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// EventCreator creates calendar events with Meet conferences.
type EventCreator interface {
	CreateEvent(ctx context.Context, cred *google.Credential, ev MeetingEvent) EventResult
}
