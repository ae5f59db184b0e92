// Package meet produces Google Meet style links without calling any Google API.
//
// GenerateFallbackLink returns a syntactically valid meet.google.com URL
// (three lowercase segments of 3, 4 and 3 letters). It is used whenever the
// real Calendar integration is unavailable so that callers always have a
// link to hand back. TemplateLink builds a calendar.google.com "render" URL
// that lets a recipient add the meeting to their own calendar by hand.
package meet
