// Package meeting defines the Meeting record, its status lifecycle and the
// validation of incoming scheduling requests.
//
// A Meeting starts out pending. AttachLink sets the meeting link and moves it
// to confirmed; once a link is attached it is never replaced or cleared.
package meeting
