package google

import (
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultOAuthScopes are requested during the consent flow.
//
// The scopes provide access to:
//   - Google Calendar: create events with Meet conferences
//   - Gmail: send notification emails when the gmail transport is used
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
	gmail.GmailSendScope,
}
