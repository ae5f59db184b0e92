package notify

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteEncode(t *testing.T) {
	start := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	inv := Invite{
		UID:         inviteUID(42, "example.com"),
		Summary:     "Website redesign",
		Description: "Requested by: jane@example.com\n\nNotes:\nBring mockups, please",
		Start:       start,
		End:         start.Add(time.Hour),
		URL:         "https://meet.google.com/abc-defg-hij",
		Organizer:   "owner@example.com",
		Attendee:    "jane@example.com",
	}

	data, err := inv.Encode(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(data), "METHOD:REQUEST")

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	ev := events[0]

	uid, err := ev.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, "meeting-42@example.com", uid)

	summary, err := ev.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Website redesign", summary)

	desc, err := ev.Props.Text(ical.PropDescription)
	require.NoError(t, err)
	assert.Equal(t, inv.Description, desc)

	gotStart, err := ev.DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, gotStart.Equal(start))

	gotEnd, err := ev.DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.True(t, gotEnd.Equal(start.Add(time.Hour)))

	assert.Equal(t, "mailto:owner@example.com", ev.Props.Get(ical.PropOrganizer).Value)
	assert.Equal(t, "mailto:jane@example.com", ev.Props.Get(ical.PropAttendee).Value)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", ev.Props.Get(ical.PropURL).Value)
}

func TestInviteUID(t *testing.T) {
	assert.Equal(t, "meeting-7@meetbook", inviteUID(7, ""))
	assert.Equal(t, "meeting-7@example.com", inviteUID(7, "example.com"))
}
