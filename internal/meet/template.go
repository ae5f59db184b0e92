package meet

import (
	"fmt"
	"net/url"
	"time"
)

const templateBaseURL = "https://calendar.google.com/calendar/render"

// TemplateEvent describes an event to prefill in the calendar render page.
type TemplateEvent struct {
	Title          string
	RequesterEmail string
	Notes          string
	Start          time.Time
	End            time.Time
}

// TemplateLink returns a calendar.google.com URL that opens a prefilled
// "new event" form. Times are encoded in UTC.
func TemplateLink(ev TemplateEvent) string {
	const layout = "20060102T150405Z"

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", ev.Title)
	params.Set("details", fmt.Sprintf("Requested by %s\nNotes:\n%s", ev.RequesterEmail, ev.Notes))
	params.Set("dates", ev.Start.UTC().Format(layout)+"/"+ev.End.UTC().Format(layout))
	params.Set("location", "Google Meet")

	return templateBaseURL + "?" + params.Encode()
}
