// Package notify sends the emails that accompany a meeting request.
//
// The Dispatcher composes one message for the requester and one for the
// admin list. Each send is independent: a failure is logged and reported in
// the Outcome, never returned as an error, so it cannot undo a scheduled
// meeting.
//
// Messages are delivered by a Sender. SMTPSender speaks SMTP, GmailSender
// uses the Gmail API with the deployment's Google credential and LogSender
// only logs, for development.
package notify
