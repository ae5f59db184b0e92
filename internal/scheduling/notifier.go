package scheduling

import (
	"context"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/meeting"
	"github.com/teemow/meetbook/internal/notify"
)

// Notifier sends the emails that follow link generation.
// *notify.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, m *meeting.Meeting, result calendar.EventResult) notify.Outcome
	NotifyConfirmed(ctx context.Context, m *meeting.Meeting, result calendar.EventResult) notify.Outcome
}

var _ Notifier = (*notify.Dispatcher)(nil)
