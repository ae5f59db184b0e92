package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/logging"
	"github.com/teemow/meetbook/internal/meeting"
)

// Summary counts what a bulk run did.
type Summary struct {
	Processed int `json:"processed"`
	Errored   int `json:"errored"`
	Skipped   int `json:"skipped"`
}

// String returns the message shown to the operator.
func (s Summary) String() string {
	var parts []string
	if s.Processed > 0 {
		parts = append(parts, fmt.Sprintf("Generated and sent Google Meet links for %d meeting(s).", s.Processed))
	}
	if s.Errored > 0 {
		parts = append(parts, fmt.Sprintf("Failed to process %d meeting(s). Check logs for details.", s.Errored))
	}
	if s.Processed == 0 && s.Errored == 0 {
		parts = append(parts, "All meetings already have Google Meet links.")
	}
	return strings.Join(parts, " ")
}

// BulkAction generates links for stored meetings on an operator's request.
// Records are processed one at a time; a failing record never stops the run.
type BulkAction struct {
	repo     meeting.Repository
	linker   *Linker
	notifier Notifier
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
}

// NewBulkAction creates a BulkAction.
func NewBulkAction(repo meeting.Repository, linker *Linker, notifier Notifier, opts ...Option) *BulkAction {
	o := buildOptions(opts)
	return &BulkAction{
		repo:     repo,
		linker:   linker,
		notifier: notifier,
		logger:   logging.WithComponent(o.logger, "bulk"),
		metrics:  o.metrics,
	}
}

// GenerateLinks links every meeting in ids that has no link yet, stores the
// link with a confirmed status and emails the requester. Meetings that
// already have a link are skipped, so repeating a run is harmless.
func (b *BulkAction) GenerateLinks(ctx context.Context, ids []int64) Summary {
	logger := logging.WithOperation(b.logger, "generate_links")
	logger.Info("bulk link generation started", slog.Int("meetings", len(ids)))

	var sum Summary
	for _, id := range ids {
		switch err := b.generateOne(ctx, id); {
		case errors.Is(err, errAlreadyLinked):
			sum.Skipped++
			logger.Debug("meeting already has a link", logging.MeetingID(id))
		case err != nil:
			sum.Errored++
			logger.Error("failed to generate meeting link", logging.MeetingID(id), logging.Err(err))
		default:
			sum.Processed++
		}
	}

	b.metrics.RecordBulkAction(ctx, sum.Processed, sum.Errored, sum.Skipped)
	logger.Info("bulk link generation finished",
		slog.Int("processed", sum.Processed),
		slog.Int("errored", sum.Errored),
		slog.Int("skipped", sum.Skipped))
	return sum
}

// GenerateMissing runs GenerateLinks over every stored meeting without a link.
func (b *BulkAction) GenerateMissing(ctx context.Context) (Summary, error) {
	meetings, err := b.repo.List(ctx, meeting.ListFilter{MissingLink: true})
	if err != nil {
		return Summary{}, fmt.Errorf("list meetings missing a link: %w", err)
	}

	ids := make([]int64, 0, len(meetings))
	for _, m := range meetings {
		ids = append(ids, m.ID)
	}
	return b.GenerateLinks(ctx, ids), nil
}

var errAlreadyLinked = errors.New("meeting already linked")

func (b *BulkAction) generateOne(ctx context.Context, id int64) error {
	m, err := b.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if m.HasLink() {
		return errAlreadyLinked
	}

	result := b.linker.Link(ctx, m)
	if err := m.AttachLink(result.URL); err != nil {
		return fmt.Errorf("attach link to meeting %d: %w", id, err)
	}
	switch err := b.repo.SaveLink(ctx, m); {
	case errors.Is(err, meeting.ErrLinkAlreadySet):
		b.logger.Warn("meeting was linked concurrently, discarding the new link",
			logging.MeetingID(id),
			logging.EventID(result.EventID))
		return errAlreadyLinked
	case err != nil:
		b.logger.Error("failed to store meeting link",
			logging.MeetingID(id),
			logging.EventID(result.EventID),
			logging.Err(err))
		return err
	}

	if b.notifier != nil {
		b.notifier.NotifyConfirmed(ctx, m, result)
	}
	return nil
}

// MarkStatus sets status on every meeting in ids and returns how many were
// updated. Meetings that cannot take the status are reported in the
// joined error and left unchanged.
func (b *BulkAction) MarkStatus(ctx context.Context, ids []int64, status meeting.Status) (int, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("unknown meeting status %q", status)
	}

	var (
		updated int
		errs    []error
	)
	for _, id := range ids {
		m, err := b.repo.Get(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := m.SetStatus(status); err != nil {
			errs = append(errs, fmt.Errorf("meeting %d: %w", id, err))
			continue
		}
		if err := b.repo.Update(ctx, m); err != nil {
			errs = append(errs, err)
			continue
		}
		updated++
	}

	b.logger.Info("meetings marked",
		logging.Operation("mark_status"),
		logging.Status(string(status)),
		slog.Int("updated", updated),
		slog.Int("failed", len(errs)))
	return updated, errors.Join(errs...)
}
