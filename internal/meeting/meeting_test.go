package meeting

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"Confirmed", StatusConfirmed, false},
		{" completed ", StatusCompleted, false},
		{"cancelled", StatusCancelled, false},
		{"archived", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_Label(t *testing.T) {
	assert.Equal(t, "Confirmed - Meet Link Sent", StatusConfirmed.Label())
	assert.Equal(t, "weird", Status("weird").Label())
}

func TestAttachLink(t *testing.T) {
	m := &Meeting{Status: StatusPending}

	require.NoError(t, m.AttachLink("https://meet.google.com/abc-defg-hij"))
	assert.Equal(t, StatusConfirmed, m.Status)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", m.MeetURL)
	assert.True(t, m.HasLink())
}

func TestAttachLink_NeverReplaces(t *testing.T) {
	m := &Meeting{Status: StatusCompleted, MeetURL: "https://meet.google.com/abc-defg-hij"}

	err := m.AttachLink("https://meet.google.com/zzz-zzzz-zzz")
	assert.ErrorIs(t, err, ErrLinkAlreadySet)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", m.MeetURL)
	assert.Equal(t, StatusCompleted, m.Status)
}

func TestAttachLink_Empty(t *testing.T) {
	m := &Meeting{Status: StatusPending}

	assert.ErrorIs(t, m.AttachLink("  "), ErrEmptyLink)
	assert.Equal(t, StatusPending, m.Status)
	assert.False(t, m.HasLink())
}

func TestSetStatus(t *testing.T) {
	m := &Meeting{Status: StatusPending}

	assert.ErrorIs(t, m.SetStatus(StatusConfirmed), ErrNoLink)
	assert.Equal(t, StatusPending, m.Status)

	require.NoError(t, m.SetStatus(StatusCancelled))
	assert.Equal(t, StatusCancelled, m.Status)

	assert.Error(t, m.SetStatus(Status("bogus")))

	m.MeetURL = "https://meet.google.com/abc-defg-hij"
	require.NoError(t, m.SetStatus(StatusConfirmed))
	assert.Equal(t, StatusConfirmed, m.Status)
}

func TestStartsAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	m := &Meeting{
		Date: civil.Date{Year: 2025, Month: time.March, Day: 14},
		Time: civil.Time{Hour: 15, Minute: 30},
	}

	start := m.StartsAt(loc)
	assert.Equal(t, "2025-03-14T15:30:00+05:30", start.Format(time.RFC3339))
}

func TestValidator_Parse(t *testing.T) {
	v := NewValidator()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	m, err := v.Parse(Request{
		Name:  " Jane Doe ",
		Email: "jane@example.com",
		Topic: "Website redesign",
		Notes: "Bring mockups",
		Date:  "2025-03-14",
		Time:  "15:30",
	}, now)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", m.Name)
	assert.Equal(t, StatusPending, m.Status)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.March, Day: 14}, m.Date)
	assert.Equal(t, civil.Time{Hour: 15, Minute: 30}, m.Time)
	assert.Equal(t, now, m.CreatedAt)
	assert.False(t, m.HasLink())
}

func TestValidator_ParseTimeLayouts(t *testing.T) {
	v := NewValidator()

	for _, in := range []string{"09:05", "09:05:00", "9:05 AM"} {
		t.Run(in, func(t *testing.T) {
			m, err := v.Parse(Request{
				Name: "A", Email: "a@example.com", Topic: "T", Date: "2025-01-02", Time: in,
			}, time.Now())
			require.NoError(t, err)
			assert.Equal(t, civil.Time{Hour: 9, Minute: 5}, m.Time)
		})
	}
}

func TestValidator_ParseErrors(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		req        Request
		wantFields []string
	}{
		{
			name:       "all missing",
			req:        Request{},
			wantFields: []string{"name", "email", "topic", "date", "time"},
		},
		{
			name: "bad email",
			req: Request{
				Name: "A", Email: "not-an-email", Topic: "T", Date: "2025-01-02", Time: "10:00",
			},
			wantFields: []string{"email"},
		},
		{
			name: "unparseable date and time",
			req: Request{
				Name: "A", Email: "a@example.com", Topic: "T", Date: "14/03/2025", Time: "25:99",
			},
			wantFields: []string{"date", "time"},
		},
		{
			name: "topic too long",
			req: Request{
				Name: "A", Email: "a@example.com", Topic: strings.Repeat("x", 201), Date: "2025-01-02", Time: "10:00",
			},
			wantFields: []string{"topic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := v.Parse(tt.req, time.Now())
			assert.Nil(t, m)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			ve := err.(*ValidationError)
			assert.Len(t, ve.Fields, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, ve.Fields, f)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"time": "Enter a valid time.",
		"date": "Enter a valid date.",
	}}
	assert.Equal(t, "invalid meeting request: date: Enter a valid date.; time: Enter a valid time.", err.Error())
}
