// Package calendar creates Google Calendar events with Google Meet
// conferences attached.
//
// A single insert call is made per meeting. The join URL is taken from the
// conference's video entry point, or from the event's web link when the
// conference has none. Every failure is reported inside EventResult so the
// caller can fall back to a locally generated link.
//
// Example usage:
//
//	client, err := calendar.NewClient(calendar.WithOrganizer("owner@example.com"))
//	if err != nil {
//	    return err
//	}
//	result := client.CreateEvent(ctx, cred, calendar.MeetingEvent{
//	    Title:          "Website redesign",
//	    Date:           civil.Date{Year: 2025, Month: time.March, Day: 14},
//	    Time:           civil.Time{Hour: 15, Minute: 30},
//	    RequesterEmail: "jane@example.com",
//	})
package calendar
