package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/meetbook/internal/meeting"
)

// Compile-time interface satisfaction check.
var _ meeting.Repository = (*MeetingRepo)(nil)

const meetingColumns = `id, name, email, topic, notes, meeting_date, meeting_time, status, meet_url, created_at`

// MeetingRepo is the SQLite implementation of meeting.Repository.
type MeetingRepo struct {
	db *DB
}

// NewMeetingRepo creates a new MeetingRepo backed by the given DB.
func NewMeetingRepo(db *DB) *MeetingRepo {
	return &MeetingRepo{db: db}
}

// Create inserts m and sets its ID.
func (r *MeetingRepo) Create(ctx context.Context, m *meeting.Meeting) error {
	const query = `INSERT INTO meetings (name, email, topic, notes, meeting_date, meeting_time, status, meet_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := m.Status
	if status == "" {
		status = meeting.StatusPending
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		m.Name, m.Email, m.Topic, m.Notes,
		m.Date.String(), m.Time.String(),
		string(status), nullString(m.MeetURL),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("read meeting id: %w", err)
	}

	m.ID = id
	m.Status = status
	m.CreatedAt = createdAt.UTC()
	return nil
}

// Get retrieves a meeting by ID.
func (r *MeetingRepo) Get(ctx context.Context, id int64) (*meeting.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`

	m, err := scanMeeting(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get meeting %d: %w", id, meeting.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get meeting %d: %w", id, err)
	}

	return m, nil
}

// Update writes status and link. A stored link is never overwritten or cleared.
func (r *MeetingRepo) Update(ctx context.Context, m *meeting.Meeting) error {
	const query = `UPDATE meetings SET status = ?, meet_url = COALESCE(meet_url, ?) WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, string(m.Status), nullString(m.MeetURL), m.ID)
	if err != nil {
		return fmt.Errorf("update meeting %d: %w", m.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update meeting %d: %w", m.ID, meeting.ErrNotFound)
	}

	return nil
}

// SaveLink claims the meeting for m's link. The write only applies while
// the stored link is empty, so of two concurrent writers exactly one wins.
func (r *MeetingRepo) SaveLink(ctx context.Context, m *meeting.Meeting) error {
	const query = `UPDATE meetings SET status = ?, meet_url = ?
		WHERE id = ? AND (meet_url IS NULL OR meet_url = '')`

	if m.MeetURL == "" {
		return fmt.Errorf("save link for meeting %d: %w", m.ID, meeting.ErrEmptyLink)
	}

	result, err := r.db.Writer.ExecContext(ctx, query, string(m.Status), m.MeetURL, m.ID)
	if err != nil {
		return fmt.Errorf("save link for meeting %d: %w", m.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	err = r.db.Writer.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM meetings WHERE id = ?)`, m.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("save link for meeting %d: %w", m.ID, err)
	}
	if !exists {
		return fmt.Errorf("save link for meeting %d: %w", m.ID, meeting.ErrNotFound)
	}
	return fmt.Errorf("save link for meeting %d: %w", m.ID, meeting.ErrLinkAlreadySet)
}

// List returns meetings matching filter, newest first.
func (r *MeetingRepo) List(ctx context.Context, filter meeting.ListFilter) ([]meeting.Meeting, error) {
	var (
		where []string
		args  []any
	)
	if filter.MissingLink {
		where = append(where, `(meet_url IS NULL OR meet_url = '')`)
	}
	if filter.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + meetingColumns + ` FROM meetings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []meeting.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}

	return meetings, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(s scanner) (*meeting.Meeting, error) {
	var (
		m         meeting.Meeting
		date      string
		clock     string
		status    string
		meetURL   sql.NullString
		createdAt string
	)

	err := s.Scan(&m.ID, &m.Name, &m.Email, &m.Topic, &m.Notes, &date, &clock, &status, &meetURL, &createdAt)
	if err != nil {
		return nil, err
	}

	m.Date, err = civil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse meeting_date: %w", err)
	}
	m.Time, err = civil.ParseTime(clock)
	if err != nil {
		return nil, fmt.Errorf("parse meeting_time: %w", err)
	}
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	m.Status = meeting.Status(status)
	m.MeetURL = meetURL.String

	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
