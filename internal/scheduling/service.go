package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/logging"
	"github.com/teemow/meetbook/internal/meeting"
)

// ConfirmationMessage is shown to a visitor whose request was accepted.
const ConfirmationMessage = "Meeting request submitted successfully! We'll send you a confirmation email with the Google Meet link shortly."

// Confirmation is returned for every accepted request, whether the link
// came from Calendar or from the fallback generator.
type Confirmation struct {
	MeetingID int64
	URL       string
	Method    calendar.Method
	Message   string
}

// Service handles visitor scheduling requests.
type Service struct {
	validator *meeting.Validator
	repo      meeting.Repository
	linker    *Linker
	notifier  Notifier
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(repo meeting.Repository, linker *Linker, notifier Notifier, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{
		validator: meeting.NewValidator(),
		repo:      repo,
		linker:    linker,
		notifier:  notifier,
		now:       o.now,
		logger:    logging.WithComponent(o.logger, "scheduling"),
	}
}

// Schedule validates req, stores the meeting, attaches a link and notifies
// the requester and administrators, in that order. Invalid input is
// returned as a *meeting.ValidationError before anything is stored. Once
// the meeting is stored the request runs to completion even if ctx is
// cancelled.
func (s *Service) Schedule(ctx context.Context, req meeting.Request) (*Confirmation, error) {
	m, err := s.validator.Parse(req, s.now())
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("store meeting: %w", err)
	}
	logger := s.logger.With(logging.MeetingID(m.ID))
	logger.Info("meeting requested", logging.UserHash(m.Email))

	result := s.linker.Link(ctx, m)
	if err := m.AttachLink(result.URL); err != nil {
		return nil, fmt.Errorf("attach link to meeting %d: %w", m.ID, err)
	}
	switch err := s.repo.SaveLink(ctx, m); {
	case errors.Is(err, meeting.ErrLinkAlreadySet):
		// An operator run linked the meeting while the Calendar call was in
		// flight. The stored link is the one the requester was sent.
		stored, getErr := s.repo.Get(ctx, m.ID)
		if getErr != nil {
			return nil, fmt.Errorf("reload linked meeting: %w", getErr)
		}
		logger.Warn("meeting was linked concurrently, keeping the stored link",
			logging.EventID(result.EventID),
			logging.Method(string(result.Method)))
		m = stored
		result = storedLinkResult(stored, result)
	case err != nil:
		logger.Error("failed to store meeting link",
			logging.EventID(result.EventID),
			logging.Method(string(result.Method)),
			logging.Err(err))
		return nil, fmt.Errorf("store meeting link: %w", err)
	}

	if s.notifier != nil {
		if out := s.notifier.Notify(ctx, m, result); !out.OK() {
			logger.Warn("meeting scheduled with notification failures", logging.Err(out.Err()))
		}
	}

	return &Confirmation{
		MeetingID: m.ID,
		URL:       m.MeetURL,
		Method:    result.Method,
		Message:   ConfirmationMessage,
	}, nil
}

// storedLinkResult describes a link that was already stored for m. The
// event created by the losing attempt is not referenced.
func storedLinkResult(m *meeting.Meeting, attempt calendar.EventResult) calendar.EventResult {
	return calendar.EventResult{
		URL:     m.MeetURL,
		Method:  attempt.Method,
		Success: attempt.Success,
		Err:     attempt.Err,
	}
}
