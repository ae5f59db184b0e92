package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
	"github.com/teemow/meetbook/internal/meet"
	"github.com/teemow/meetbook/internal/meeting"
)

// Notification audiences.
const (
	AudienceRequester = "requester"
	AudienceAdmins    = "admins"
)

const (
	defaultSignature = "The meetbook team"
	noNotes          = "None provided"
	pendingLink      = "Will be sent after confirmation"
	inviteFilename   = "invite.ics"
)

// NotificationError reports a failed send to one audience.
type NotificationError struct {
	Audience string
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Audience, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// Outcome records what happened to each audience of one notification.
type Outcome struct {
	Requester     error
	Admins        error
	AdminsSkipped bool
}

// OK reports whether every attempted send succeeded.
func (o Outcome) OK() bool {
	return o.Requester == nil && o.Admins == nil
}

// Errors returns the non-nil send errors.
func (o Outcome) Errors() []error {
	var errs []error
	for _, err := range []error{o.Requester, o.Admins} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Err joins the send errors, or returns nil.
func (o Outcome) Err() error {
	return errors.Join(o.Errors()...)
}

// Dispatcher emails requesters and administrators about meetings.
type Dispatcher struct {
	sender       Sender
	from         string
	admins       []string
	location     *time.Location
	organizer    string
	signature    string
	inviteDomain string
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
	now          func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithAdmins sets the administrator addresses. An empty list disables admin emails.
func WithAdmins(admins ...string) DispatcherOption {
	return func(d *Dispatcher) {
		d.admins = nil
		for _, a := range admins {
			if a != "" {
				d.admins = append(d.admins, a)
			}
		}
	}
}

// WithLocation sets the zone meeting times are displayed in.
func WithLocation(loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if loc != nil {
			d.location = loc
		}
	}
}

// WithOrganizer sets the organizer address written into invites.
func WithOrganizer(email string) DispatcherOption {
	return func(d *Dispatcher) {
		d.organizer = email
	}
}

// WithSignature sets the closing line of requester emails.
func WithSignature(signature string) DispatcherOption {
	return func(d *Dispatcher) {
		if signature != "" {
			d.signature = signature
		}
	}
}

// WithInviteDomain sets the domain part of invite UIDs.
func WithInviteDomain(domain string) DispatcherOption {
	return func(d *Dispatcher) {
		d.inviteDomain = domain
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock overrides the time source used for message dates.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a Dispatcher sending through sender from the given address.
func NewDispatcher(sender Sender, from string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:    sender,
		from:      from,
		location:  time.UTC,
		signature: defaultSignature,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.WithComponent(d.logger, "notify")
	return d
}

// Notify tells the requester their request was received and the
// administrators that a new request is waiting. Each audience is sent
// independently; failures are logged and reported in the Outcome.
func (d *Dispatcher) Notify(ctx context.Context, m *meeting.Meeting, result calendar.EventResult) Outcome {
	data := d.viewOf(m, result)
	var out Outcome

	out.Requester = d.send(ctx, m, AudienceRequester, func() (Message, error) {
		body, err := render(requestedTemplate, data)
		if err != nil {
			return Message{}, err
		}
		msg := Message{
			From:    d.from,
			To:      []string{m.Email},
			Subject: "Meeting Request Received: " + m.Topic,
			Body:    body,
		}
		if result.URL != "" {
			att, err := d.inviteAttachment(m, result)
			if err != nil {
				return Message{}, err
			}
			msg.Attachments = append(msg.Attachments, att)
		}
		return msg, nil
	})

	if len(d.admins) == 0 {
		out.AdminsSkipped = true
		d.logger.Debug("no administrators configured, skipping admin notification",
			logging.MeetingID(m.ID))
		return out
	}

	out.Admins = d.send(ctx, m, AudienceAdmins, func() (Message, error) {
		body, err := render(adminTemplate, data)
		if err != nil {
			return Message{}, err
		}
		return Message{
			From:    d.from,
			To:      d.admins,
			Subject: "New Meeting Request: " + m.Topic,
			Body:    body,
		}, nil
	})

	return out
}

// NotifyConfirmed sends the requester the confirmed meeting link.
// Administrators are not notified.
func (d *Dispatcher) NotifyConfirmed(ctx context.Context, m *meeting.Meeting, result calendar.EventResult) Outcome {
	data := d.viewOf(m, result)
	data.TemplateLink = ""

	var out Outcome
	out.AdminsSkipped = true
	out.Requester = d.send(ctx, m, AudienceRequester, func() (Message, error) {
		body, err := render(confirmedTemplate, data)
		if err != nil {
			return Message{}, err
		}
		msg := Message{
			From:    d.from,
			To:      []string{m.Email},
			Subject: "Meeting Confirmed: " + m.Topic,
			Body:    body,
		}
		att, err := d.inviteAttachment(m, result)
		if err != nil {
			return Message{}, err
		}
		msg.Attachments = append(msg.Attachments, att)
		return msg, nil
	})
	return out
}

func (d *Dispatcher) send(ctx context.Context, m *meeting.Meeting, audience string, build func() (Message, error)) (err error) {
	ctx, span := instrumentation.StartSpan(ctx, "notify."+audience,
		instrumentation.NewSpanAttributeBuilder().
			WithMeetingID(m.ID).
			WithAudience(audience).
			Build()...)
	defer span.End()

	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			d.logger.Warn("failed to send notification",
				logging.MeetingID(m.ID),
				logging.Audience(audience),
				logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
			d.logger.Info("notification sent",
				logging.MeetingID(m.ID),
				logging.Audience(audience),
				logging.UserHash(m.Email))
		}
		d.metrics.RecordNotification(ctx, audience, status)
	}()

	if d.sender == nil {
		return &NotificationError{Audience: audience, Err: errors.New("no sender configured")}
	}

	msg, err := build()
	if err != nil {
		return &NotificationError{Audience: audience, Err: fmt.Errorf("compose: %w", err)}
	}
	if err := d.sender.Send(ctx, msg); err != nil {
		return &NotificationError{Audience: audience, Err: err}
	}
	return nil
}

func (d *Dispatcher) viewOf(m *meeting.Meeting, result calendar.EventResult) emailData {
	start := m.StartsAt(d.location)

	data := emailData{
		Name:      m.Name,
		Email:     m.Email,
		Topic:     m.Topic,
		Date:      start.Format("Monday, January 02, 2006"),
		Time:      start.Format("03:04 PM"),
		Zone:      start.Format("MST"),
		Link:      result.URL,
		Notes:     notesOrDefault(m.Notes),
		Signature: d.signature,
		Rule:      rule,
	}
	if data.Link == "" {
		data.Link = pendingLink
	}
	if result.Method == calendar.MethodCalendarAPI {
		data.CalendarLink = result.CalendarLink
	}
	if result.Method == calendar.MethodFallback {
		data.TemplateLink = meet.TemplateLink(meet.TemplateEvent{
			Title:          m.Topic,
			RequesterEmail: m.Email,
			Notes:          m.Notes,
			Start:          start,
			End:            start.Add(calendar.EventDuration),
		})
	}
	return data
}

func (d *Dispatcher) inviteAttachment(m *meeting.Meeting, result calendar.EventResult) (Attachment, error) {
	start := m.StartsAt(d.location)
	inv := Invite{
		UID:         inviteUID(m.ID, d.inviteDomain),
		Summary:     m.Topic,
		Description: fmt.Sprintf("Requested by: %s\n\nNotes:\n%s", m.Email, notesOrDefault(m.Notes)),
		Start:       start,
		End:         start.Add(calendar.EventDuration),
		URL:         result.URL,
		Organizer:   d.organizer,
		Attendee:    m.Email,
	}
	data, err := inv.Encode(d.now())
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Filename:    inviteFilename,
		ContentType: "text/calendar",
		Params:      map[string]string{"charset": "utf-8", "method": "REQUEST"},
		Data:        data,
	}, nil
}

func notesOrDefault(notes string) string {
	if notes == "" {
		return noNotes
	}
	return notes
}
