package notify

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
)

const inviteProductID = "-//meetbook//Meeting Invite//EN"

// Invite describes the iCalendar event attached to requester emails.
type Invite struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	URL         string
	Organizer   string
	Attendee    string
}

// inviteUID derives a stable event UID from the meeting ID so repeated
// notifications update the same calendar entry.
func inviteUID(meetingID int64, domain string) string {
	if domain == "" {
		domain = "meetbook"
	}
	return "meeting-" + strconv.FormatInt(meetingID, 10) + "@" + domain
}

// Encode renders the invite as an iCalendar REQUEST.
func (inv Invite) Encode(now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, inviteProductID)
	cal.Props.SetText(ical.PropMethod, "REQUEST")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, inv.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, inv.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, inv.End.UTC())
	event.Props.SetText(ical.PropSummary, inv.Summary)
	event.Props.SetText(ical.PropDescription, inv.Description)
	if inv.URL != "" {
		event.Props.SetText(ical.PropLocation, inv.URL)
		setRaw(event.Props, ical.PropURL, inv.URL)
	}
	if inv.Organizer != "" {
		setRaw(event.Props, ical.PropOrganizer, "mailto:"+inv.Organizer)
	}
	if inv.Attendee != "" {
		setRaw(event.Props, ical.PropAttendee, "mailto:"+inv.Attendee)
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode invite: %w", err)
	}
	return buf.Bytes(), nil
}

// setRaw stores value unescaped, in the property's default value type.
func setRaw(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	props.Set(prop)
}
