package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is an outgoing plain text email.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Params      map[string]string
	Data        []byte
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Compose renders msg as an RFC 5322 message.
func Compose(msg Message, now time.Time) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address %q: %w", msg.From, err)
	}

	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("parse recipient %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generate message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	w, err := mw.CreateSingleInline(th)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close text part: %w", err)
	}

	for _, att := range msg.Attachments {
		var ah mail.AttachmentHeader
		ah.SetContentType(att.ContentType, att.Params)
		ah.SetFilename(att.Filename)

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("create attachment %s: %w", att.Filename, err)
		}
		if _, err := aw.Write(att.Data); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", att.Filename, err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("close attachment %s: %w", att.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}

	return buf.Bytes(), nil
}
