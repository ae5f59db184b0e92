package notify

import (
	"context"
	"time"

	"github.com/teemow/meetbook/internal/gmail"
)

// GmailSender delivers messages through the Gmail API.
type GmailSender struct {
	client *gmail.Client
	now    func() time.Time
}

// NewGmailSender wraps client as a Sender.
func NewGmailSender(client *gmail.Client) *GmailSender {
	return &GmailSender{client: client, now: time.Now}
}

// Send composes msg and uploads it.
func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	raw, err := Compose(msg, s.now())
	if err != nil {
		return err
	}
	_, err = s.client.Send(ctx, raw)
	return err
}
