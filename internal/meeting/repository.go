package meeting

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a meeting does not exist.
var ErrNotFound = errors.New("meeting not found")

// ListFilter narrows a meeting listing. The zero value lists everything.
type ListFilter struct {
	// MissingLink keeps only meetings without a link.
	MissingLink bool

	// Status keeps only meetings in this status when set.
	Status Status

	// Limit caps the number of results when positive.
	Limit int
}

// Repository persists meetings.
type Repository interface {
	// Create stores a new meeting and assigns its ID.
	Create(ctx context.Context, m *Meeting) error

	// Get returns the meeting with id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*Meeting, error)

	// Update writes the status and link of an existing meeting, or returns ErrNotFound.
	// A stored link is kept.
	Update(ctx context.Context, m *Meeting) error

	// SaveLink stores the link and status of m only if the stored meeting
	// has no link yet. It returns ErrLinkAlreadySet when another writer
	// linked the meeting first, and ErrNotFound when it does not exist.
	SaveLink(ctx context.Context, m *Meeting) error

	// List returns meetings newest first.
	List(ctx context.Context, filter ListFilter) ([]Meeting, error)
}
