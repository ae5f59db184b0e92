package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/teemow/meetbook/internal/logging"
)

// LogSender writes messages to the log instead of delivering them.
// It is meant for development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender. A nil logger uses slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logging.WithComponent(logger, "mail")}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email not sent (log transport)",
		slog.String("subject", msg.Subject),
		slog.Int("recipients", len(msg.To)),
		slog.Int("attachments", len(msg.Attachments)),
		slog.String("body", strings.TrimSpace(msg.Body)))
	return nil
}
