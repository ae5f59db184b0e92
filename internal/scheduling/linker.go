package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
	"github.com/teemow/meetbook/internal/meet"
	"github.com/teemow/meetbook/internal/meeting"
)

// ErrCredentialUnavailable is recorded when the credential store has no
// usable credential and the fallback generator is used instead.
var ErrCredentialUnavailable = errors.New("google credential unavailable")

// Linker produces a meeting link for one meeting.
//
// It checks the credential store, tries the Calendar API when a credential
// exists and falls back to a generated link otherwise. Link never fails and
// never returns an empty URL. It does not persist anything.
type Linker struct {
	store   google.CredentialStore
	events  calendar.EventCreator
	opts    options
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewLinker creates a Linker.
func NewLinker(store google.CredentialStore, events calendar.EventCreator, opts ...Option) *Linker {
	o := buildOptions(opts)
	return &Linker{
		store:   store,
		events:  events,
		opts:    o,
		logger:  logging.WithComponent(o.logger, "linker"),
		metrics: o.metrics,
	}
}

// IdempotencyKey derives the conference request ID for a stored meeting, so
// retries for the same meeting reuse one conference. Unsaved meetings get
// an empty key.
func IdempotencyKey(meetingID int64) string {
	if meetingID == 0 {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("meeting:"+strconv.FormatInt(meetingID, 10))).String()
}

// Link returns a link for m.
func (l *Linker) Link(ctx context.Context, m *meeting.Meeting) (result calendar.EventResult) {
	ctx, span := instrumentation.StartSpan(ctx, "scheduling.link",
		instrumentation.NewSpanAttributeBuilder().WithMeetingID(m.ID).Build()...)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = l.fallback(fmt.Errorf("link generation panicked: %v", r), false)
		}

		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
			WithLinkMethod(string(result.Method)).
			Build()...)
		if result.Err != nil {
			instrumentation.AddSpanEvent(span, "fallback")
		}
		instrumentation.SetSpanSuccess(span)
		l.metrics.RecordMeetingLink(ctx, string(result.Method), result.Success)

		l.logger.Info("meeting link resolved",
			logging.MeetingID(m.ID),
			logging.Method(string(result.Method)),
			slog.Bool("success", result.Success),
			logging.Err(result.Err))
	}()

	cred, ok := l.loadCredential(ctx)
	if !ok {
		return l.fallback(ErrCredentialUnavailable, true)
	}

	res := l.createEvent(ctx, cred, calendar.MeetingEvent{
		Title:          m.Topic,
		Date:           m.Date,
		Time:           m.Time,
		RequesterEmail: m.Email,
		Notes:          m.Notes,
		IdempotencyKey: IdempotencyKey(m.ID),
	})
	if res.Success && res.URL != "" {
		res.Method = calendar.MethodCalendarAPI
		return res
	}

	err := res.Err
	if err == nil {
		err = calendar.ErrNoJoinURL
	}
	return l.fallback(err, false)
}

func (l *Linker) loadCredential(ctx context.Context) (*google.Credential, bool) {
	if l.store == nil {
		return nil, false
	}
	cred, ok := l.store.Load(ctx)
	if !ok || cred == nil {
		return nil, false
	}
	return cred, true
}

func (l *Linker) createEvent(ctx context.Context, cred *google.Credential, ev calendar.MeetingEvent) (res calendar.EventResult) {
	defer func() {
		if r := recover(); r != nil {
			res = calendar.EventResult{
				Method: calendar.MethodCalendarAPI,
				Err:    &calendar.RemoteAPIError{Operation: "insert", Err: fmt.Errorf("panic: %v", r)},
			}
		}
	}()

	if l.events == nil {
		return calendar.EventResult{Method: calendar.MethodCalendarAPI, Err: errors.New("no calendar client configured")}
	}
	return l.events.CreateEvent(ctx, cred, ev)
}

// fallback returns a generated link. success reports whether falling back
// was the expected outcome rather than a failed remote attempt.
func (l *Linker) fallback(cause error, success bool) calendar.EventResult {
	url := l.opts.fallback.Link()
	if !meet.IsFallbackShaped(url) {
		l.logger.Warn("fallback generator returned a malformed link, using the default generator",
			slog.String("link", url))
		url = meet.GenerateFallbackLink()
	}
	return calendar.EventResult{
		URL:     url,
		Method:  calendar.MethodFallback,
		Success: success,
		Err:     cause,
	}
}
