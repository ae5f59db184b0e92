package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/meet"
	"github.com/teemow/meetbook/internal/meeting"
	"github.com/teemow/meetbook/internal/notify"
)

type fakeStore struct {
	mu    sync.Mutex
	cred  *google.Credential
	loads int
}

func (s *fakeStore) Load(context.Context) (*google.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.cred, s.cred != nil
}

func validCredential() *google.Credential {
	return &google.Credential{AccessToken: "access", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
}

type fakeCreator struct {
	result calendar.EventResult
	panic  any
	calls  []calendar.MeetingEvent
}

func (c *fakeCreator) CreateEvent(_ context.Context, _ *google.Credential, ev calendar.MeetingEvent) calendar.EventResult {
	c.calls = append(c.calls, ev)
	if c.panic != nil {
		panic(c.panic)
	}
	return c.result
}

func realEvent(url string) calendar.EventResult {
	return calendar.EventResult{URL: url, Method: calendar.MethodCalendarAPI, EventID: "evt-1", Success: true}
}

type countingGenerator struct {
	gen   *meet.Generator
	calls int
}

func newCountingGenerator() *countingGenerator {
	return &countingGenerator{gen: meet.NewGenerator(nil)}
}

func (g *countingGenerator) Link() string {
	g.calls++
	return g.gen.Link()
}

// memoryRepo is an in-memory meeting.Repository.
type memoryRepo struct {
	mu         sync.Mutex
	meetings   map[int64]meeting.Meeting
	nextID     int64
	failGet    map[int64]error
	failSave   map[int64]error
	failCreate error
	updates    int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{meetings: make(map[int64]meeting.Meeting)}
}

func (r *memoryRepo) Create(_ context.Context, m *meeting.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.nextID++
	m.ID = r.nextID
	r.meetings[m.ID] = *m
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*meeting.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failGet[id]; ok {
		return nil, err
	}
	m, ok := r.meetings[id]
	if !ok {
		return nil, fmt.Errorf("get meeting %d: %w", id, meeting.ErrNotFound)
	}
	return &m, nil
}

func (r *memoryRepo) Update(_ context.Context, m *meeting.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.meetings[m.ID]
	if !ok {
		return meeting.ErrNotFound
	}
	stored.Status = m.Status
	if stored.MeetURL == "" {
		stored.MeetURL = m.MeetURL
	}
	r.meetings[m.ID] = stored
	r.updates++
	return nil
}

func (r *memoryRepo) SaveLink(_ context.Context, m *meeting.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failSave[m.ID]; ok {
		return err
	}
	stored, ok := r.meetings[m.ID]
	if !ok {
		return meeting.ErrNotFound
	}
	if stored.HasLink() {
		return fmt.Errorf("save link for meeting %d: %w", m.ID, meeting.ErrLinkAlreadySet)
	}
	stored.Status = m.Status
	stored.MeetURL = m.MeetURL
	r.meetings[m.ID] = stored
	r.updates++
	return nil
}

func (r *memoryRepo) List(_ context.Context, filter meeting.ListFilter) ([]meeting.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []meeting.Meeting
	for _, m := range r.meetings {
		if filter.MissingLink && m.HasLink() {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) add(m meeting.Meeting) int64 {
	_ = r.Create(context.Background(), &m)
	return m.ID
}

func (r *memoryRepo) stored(id int64) meeting.Meeting {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[id]
}

type notification struct {
	kind   string
	id     int64
	result calendar.EventResult
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notification
	outcome notify.Outcome
}

func (n *fakeNotifier) Notify(_ context.Context, m *meeting.Meeting, result calendar.EventResult) notify.Outcome {
	return n.record("requested", m, result)
}

func (n *fakeNotifier) NotifyConfirmed(_ context.Context, m *meeting.Meeting, result calendar.EventResult) notify.Outcome {
	return n.record("confirmed", m, result)
}

func (n *fakeNotifier) record(kind string, m *meeting.Meeting, result calendar.EventResult) notify.Outcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: kind, id: m.ID, result: result})
	return n.outcome
}

// gatedCreator blocks its first call until release is closed, so a test
// can run other work while a Calendar request is in flight.
type gatedCreator struct {
	mu      sync.Mutex
	results []calendar.EventResult
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newGatedCreator(results ...calendar.EventResult) *gatedCreator {
	return &gatedCreator{
		results: results,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (c *gatedCreator) CreateEvent(context.Context, *google.Credential, calendar.MeetingEvent) calendar.EventResult {
	c.mu.Lock()
	n := c.calls
	c.calls++
	c.mu.Unlock()

	if n == 0 {
		close(c.entered)
		<-c.release
	}
	return c.results[min(n, len(c.results)-1)]
}

func pendingMeeting(email string) meeting.Meeting {
	return meeting.Meeting{
		Name:   "Jane Doe",
		Email:  email,
		Topic:  "Website redesign",
		Notes:  "Bring mockups",
		Date:   civil.Date{Year: 2025, Month: time.March, Day: 14},
		Time:   civil.Time{Hour: 15, Minute: 30},
		Status: meeting.StatusPending,
	}
}

var errTransport = errors.New("dial tcp: connection refused")
