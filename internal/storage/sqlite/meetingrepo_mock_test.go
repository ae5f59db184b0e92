package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetbook/internal/meeting"
)

var meetingRowColumns = []string{"id", "name", "email", "topic", "notes", "meeting_date", "meeting_time", "status", "meet_url", "created_at"}

func newMockRepo(t *testing.T) (*MeetingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMeetingRepo(&DB{Writer: db, Reader: db, path: "mock"}), mock
}

var (
	errDiskIO = errors.New("disk I/O error")
	fixedTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
)

func TestMeetingRepo_Create_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO meetings")).WillReturnError(errDiskIO)

	err := repo.Create(context.Background(), makeMeeting("jane@example.com", fixedTime))

	assert.ErrorIs(t, err, errDiskIO)
	assert.Contains(t, err.Error(), "create meeting")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepo_Create_StoresNullLink(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO meetings")).
		WithArgs("Jane Doe", "jane@example.com", "Website redesign", "Bring mockups",
			"2025-03-14", "15:30:00", "pending", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	m := makeMeeting("jane@example.com", fixedTime)
	require.NoError(t, repo.Create(context.Background(), m))

	assert.Equal(t, int64(9), m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepo_Update_Errors(t *testing.T) {
	t.Run("exec", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET status = ?, meet_url = COALESCE(meet_url, ?)")).
			WillReturnError(errDiskIO)

		m := makeMeeting("jane@example.com", fixedTime)
		m.ID = 3
		assert.ErrorIs(t, repo.Update(context.Background(), m), errDiskIO)
	})

	t.Run("rows affected", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE meetings").
			WillReturnResult(sqlmock.NewErrorResult(errDiskIO))

		m := makeMeeting("jane@example.com", fixedTime)
		m.ID = 3
		err := repo.Update(context.Background(), m)
		assert.ErrorIs(t, err, errDiskIO)
		assert.Contains(t, err.Error(), "rows affected")
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE meetings").
			WithArgs("confirmed", "https://meet.google.com/abc-defg-hij", int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		m := makeMeeting("jane@example.com", fixedTime)
		m.ID = 3
		require.NoError(t, m.AttachLink("https://meet.google.com/abc-defg-hij"))
		assert.ErrorIs(t, repo.Update(context.Background(), m), meeting.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMeetingRepo_SaveLink_ConditionalWrite(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE meetings SET status = ?, meet_url = ?")+`\s+`+
		regexp.QuoteMeta("WHERE id = ? AND (meet_url IS NULL OR meet_url = '')")).
		WithArgs("confirmed", "https://meet.google.com/abc-defg-hij", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM meetings WHERE id = ?)")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	m := makeMeeting("jane@example.com", fixedTime)
	m.ID = 3
	require.NoError(t, m.AttachLink("https://meet.google.com/abc-defg-hij"))

	assert.ErrorIs(t, repo.SaveLink(context.Background(), m), meeting.ErrLinkAlreadySet)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepo_Get_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT .+ FROM meetings WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnError(errDiskIO)

	got, err := repo.Get(context.Background(), 5)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, errDiskIO)
	assert.NotErrorIs(t, err, meeting.ErrNotFound)
}

func TestMeetingRepo_Get_CorruptRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(meetingRowColumns).
		AddRow(5, "Jane Doe", "jane@example.com", "Topic", "", "14/03/2025", "15:30:00", "pending", nil, "2025-03-01T10:00:00Z")
	mock.ExpectQuery("SELECT .+ FROM meetings WHERE id = \\?").WillReturnRows(rows)

	_, err := repo.Get(context.Background(), 5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse meeting_date")
}

func TestMeetingRepo_List_BuildsFilterQuery(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(meetingRowColumns).
		AddRow(5, "Jane Doe", "jane@example.com", "Topic", "", "2025-03-14", "15:30:00", "pending", nil, "2025-03-01 10:00:00")
	mock.ExpectQuery(regexp.QuoteMeta(
		`FROM meetings WHERE (meet_url IS NULL OR meet_url = '') AND status = ? ORDER BY created_at DESC, id DESC LIMIT ?`)).
		WithArgs("pending", int64(10)).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), meeting.ListFilter{
		MissingLink: true,
		Status:      meeting.StatusPending,
		Limit:       10,
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.False(t, got[0].HasLink())
	assert.Equal(t, 2025, got[0].CreatedAt.Year())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingRepo_List_RowError(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows(meetingRowColumns).
		AddRow(5, "Jane Doe", "jane@example.com", "Topic", "", "2025-03-14", "15:30:00", "pending", nil, "2025-03-01T10:00:00Z").
		RowError(0, errDiskIO)
	mock.ExpectQuery("SELECT .+ FROM meetings").WillReturnRows(rows)

	_, err := repo.List(context.Background(), meeting.ListFilter{})

	assert.ErrorIs(t, err, errDiskIO)
}

func TestDB_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectPing().WillReturnError(errDiskIO)

	err = (&DB{Writer: db, Reader: db}).Ping(context.Background())
	assert.ErrorIs(t, err, errDiskIO)
	assert.Contains(t, err.Error(), "ping writer")
}
