package meeting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Status is the lifecycle state of a Meeting.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:   "Pending - Awaiting Confirmation",
	StatusConfirmed: "Confirmed - Meet Link Sent",
	StatusCompleted: "Completed",
	StatusCancelled: "Cancelled",
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable description shown to operators.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown meeting status %q", s)
	}
	return status, nil
}

var (
	// ErrLinkAlreadySet is returned when attaching a link to a meeting that has one.
	ErrLinkAlreadySet = errors.New("meeting link already set")

	// ErrEmptyLink is returned when attaching an empty link.
	ErrEmptyLink = errors.New("meeting link is empty")

	// ErrNoLink is returned when confirming a meeting that has no link.
	ErrNoLink = errors.New("meeting has no link")
)

// Meeting is a scheduling request made by a visitor.
type Meeting struct {
	ID        int64
	Name      string
	Email     string
	Topic     string
	Notes     string
	Date      civil.Date
	Time      civil.Time
	Status    Status
	MeetURL   string
	CreatedAt time.Time
}

// HasLink reports whether a meeting link has been attached.
func (m *Meeting) HasLink() bool {
	return m.MeetURL != ""
}

// AttachLink stores the resolved meeting link and confirms the meeting.
// A link that is already set is never replaced.
func (m *Meeting) AttachLink(url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrEmptyLink
	}
	if m.HasLink() {
		return ErrLinkAlreadySet
	}
	m.MeetURL = url
	m.Status = StatusConfirmed
	return nil
}

// SetStatus changes the status directly, as operators do from the admin.
// Confirming requires a link.
func (m *Meeting) SetStatus(status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown meeting status %q", status)
	}
	if status == StatusConfirmed && !m.HasLink() {
		return ErrNoLink
	}
	m.Status = status
	return nil
}

// StartsAt combines the requested date and time in loc.
func (m *Meeting) StartsAt(loc *time.Location) time.Time {
	return civil.DateTime{Date: m.Date, Time: m.Time}.In(loc)
}

func (m *Meeting) String() string {
	return fmt.Sprintf("Meeting with %s on %s at %s", m.Name, m.Date, m.Time)
}
