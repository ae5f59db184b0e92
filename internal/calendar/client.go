package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
)

const operationInsert = "insert"

// Client creates events on one Google calendar.
type Client struct {
	calendarID  string
	organizer   string
	location    *time.Location
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	serviceOpts []option.ClientOption
}

// Option configures a Client.
type Option func(*Client)

// WithCalendarID sets the calendar events are inserted into.
func WithCalendarID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.calendarID = id
		}
	}
}

// WithOrganizer adds the organizer's address to every event's attendees.
func WithOrganizer(email string) Option {
	return func(c *Client) {
		c.organizer = email
	}
}

// WithLocation sets the zone requested dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithServiceOptions appends options used when constructing the Calendar
// service, such as a custom endpoint.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.serviceOpts = append(c.serviceOpts, opts...)
	}
}

// NewClient creates a Client. Without options events go to the primary
// calendar and are interpreted in Asia/Kolkata.
func NewClient(opts ...Option) (*Client, error) {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %s: %w", DefaultTimeZone, err)
	}

	c := &Client{
		calendarID: DefaultCalendarID,
		location:   loc,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.logger, "calendar")
	return c, nil
}

// Location returns the zone requested dates and times are interpreted in.
func (c *Client) Location() *time.Location {
	return c.location
}

// BuildEvent returns the insert payload for ev.
func (c *Client) BuildEvent(ev MeetingEvent) *calendar.Event {
	start := civil.DateTime{Date: ev.Date, Time: ev.Time}.In(c.location)
	end := start.Add(EventDuration)

	attendees := []*calendar.EventAttendee{{Email: ev.RequesterEmail}}
	if c.organizer != "" && c.organizer != ev.RequesterEmail {
		attendees = append(attendees, &calendar.EventAttendee{Email: c.organizer})
	}

	requestID := ev.IdempotencyKey
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &calendar.Event{
		Summary:     ev.Title,
		Description: fmt.Sprintf("Requested by: %s\n\nNotes:\n%s", ev.RequesterEmail, ev.Notes),
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.location.String(),
		},
		Attendees: attendees,
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: requestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: conferenceSolution,
				},
			},
		},
	}
}

// CreateEvent inserts an event with a Meet conference and returns its join
// URL. Failures, including panics inside the API client, are reported in the
// result rather than returned. No retries are attempted.
func (c *Client) CreateEvent(ctx context.Context, cred *google.Credential, ev MeetingEvent) (result EventResult) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operationInsert)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = c.failure(&RemoteAPIError{
				Operation: operationInsert,
				Err:       fmt.Errorf("panic: %v", r),
			})
		}

		status := instrumentation.StatusSuccess
		if !result.Success {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, result.Err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operationInsert, status, time.Since(start))
	}()

	if cred == nil {
		return c.failure(&RemoteAPIError{Operation: operationInsert, Err: ErrNoCredential})
	}

	httpClient := google.NewHTTPClient(ctx, oauth2.StaticTokenSource(cred.Token()))
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, c.serviceOpts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return c.failure(&RemoteAPIError{Operation: operationInsert, Err: fmt.Errorf("failed to create Calendar service: %w", err)})
	}

	created, err := svc.Events.Insert(c.calendarID, c.BuildEvent(ev)).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return c.failure(newRemoteAPIError(operationInsert, err))
	}

	url := JoinURL(created)
	if url == "" {
		return c.failure(&RemoteAPIError{Operation: operationInsert, Err: ErrNoJoinURL})
	}

	c.logger.Info("calendar event created",
		"event_id", created.Id,
		logging.UserHash(ev.RequesterEmail))

	return EventResult{
		URL:          url,
		Method:       MethodCalendarAPI,
		EventID:      created.Id,
		CalendarLink: created.HtmlLink,
		Success:      true,
	}
}

func (c *Client) failure(err error) EventResult {
	c.logger.Warn("calendar event creation failed", logging.Err(err))
	return EventResult{
		Method:  MethodCalendarAPI,
		Success: false,
		Err:     err,
	}
}

// JoinURL returns the first video entry point of the event's conference,
// falling back to the event's web link.
func JoinURL(event *calendar.Event) string {
	if event == nil {
		return ""
	}
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	return event.HtmlLink
}

func newRemoteAPIError(operation string, err error) *RemoteAPIError {
	apiErr := &RemoteAPIError{Operation: operation, Err: err}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr.StatusCode = gerr.Code
	}
	return apiErr
}
