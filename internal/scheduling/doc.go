// Package scheduling turns meeting requests into meetings with a link.
//
// Linker decides, for one meeting, between creating a real Google Calendar
// event with a Meet conference and synthesizing a fallback link. It always
// returns a non-empty URL. Service runs the whole request path (validate,
// store, link, notify) and BulkAction lets operators retry link generation
// for stored meetings that have none.
package scheduling
