package tracker

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
)

// memoryStore 是 Store 的内存实现，行为与 PostgreSQL 仓库保持一致
type memoryStore struct {
	mu            sync.Mutex
	clock         time.Time
	users         []*domain.User
	candidates    map[string]*domain.Candidate
	order         []string
	notes         map[string]*domain.Note
	history       []*domain.HistoryEvent
	notifications map[string]*domain.Notification
	historyErr    error
	writes        int
}

func newMemoryStore(users ...*domain.User) *memoryStore {
	return &memoryStore{
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         users,
		candidates:    make(map[string]*domain.Candidate),
		notes:         make(map[string]*domain.Note),
		notifications: make(map[string]*domain.Notification),
	}
}

func (m *memoryStore) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func cloneCandidate(c *domain.Candidate) *domain.Candidate {
	cp := *c
	cp.AssignedUsers = slices.Clone(c.AssignedUsers)
	return &cp
}

func (m *memoryStore) GetUserByUID(ctx context.Context, uid string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryStore) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.users), nil
}

func (m *memoryStore) UpdateUserAvatar(ctx context.Context, uid string, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.UID == uid {
			cp := *u
			cp.AvatarURL = &avatarURL
			m.users[i] = &cp
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memoryStore) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	c.CreatedAt = m.now()
	m.candidates[c.ID] = cloneCandidate(c)
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memoryStore) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCandidate(c), nil
}

func (m *memoryStore) ListCandidatesByAssignee(ctx context.Context, uid string) ([]*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Candidate, 0)
	for _, id := range m.order {
		c, ok := m.candidates[id]
		if ok && c.IsAssigned(uid) {
			result = append(result, cloneCandidate(c))
		}
	}
	return result, nil
}

func (m *memoryStore) UpdateCandidateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.writes++
	c.Status = status
	return nil
}

func (m *memoryStore) AddAssignedUsers(ctx context.Context, id string, uids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.writes++
	for _, uid := range uids {
		if !c.IsAssigned(uid) {
			c.AssignedUsers = append(c.AssignedUsers, uid)
		}
	}
	return slices.Clone(c.AssignedUsers), nil
}

func (m *memoryStore) DeleteCandidate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[id]; !ok {
		return domain.ErrNotFound
	}
	m.writes++
	delete(m.candidates, id)
	for noteID, n := range m.notes {
		if n.CandidateID == id {
			delete(m.notes, noteID)
		}
	}
	m.history = slices.DeleteFunc(m.history, func(e *domain.HistoryEvent) bool { return e.CandidateID == id })
	return nil
}

func (m *memoryStore) CreateNote(ctx context.Context, n *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	n.CreatedAt = m.now()
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *memoryStore) GetNote(ctx context.Context, candidateID, noteID string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.CandidateID != candidateID {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memoryStore) sortedNotes(candidateID string) []*domain.Note {
	notes := make([]*domain.Note, 0)
	for _, n := range m.notes {
		if n.CandidateID == candidateID {
			cp := *n
			notes = append(notes, &cp)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.Before(notes[j].CreatedAt) })
	return notes
}

func (m *memoryStore) ListNotes(ctx context.Context, candidateID string) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedNotes(candidateID), nil
}

func (m *memoryStore) ListNotesPage(ctx context.Context, candidateID string, pageSize int, cursor string) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notes := m.sortedNotes(candidateID)
	slices.Reverse(notes)
	if cursor != "" {
		idx := slices.IndexFunc(notes, func(n *domain.Note) bool { return n.ID == cursor })
		if idx < 0 {
			return []*domain.Note{}, nil
		}
		notes = notes[idx+1:]
	}
	if len(notes) > pageSize {
		notes = notes[:pageSize]
	}
	return notes, nil
}

func (m *memoryStore) UpdateNoteText(ctx context.Context, candidateID, noteID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.CandidateID != candidateID {
		return domain.ErrNotFound
	}
	m.writes++
	n.Text = text
	return nil
}

func (m *memoryStore) DeleteNote(ctx context.Context, candidateID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok || n.CandidateID != candidateID {
		return domain.ErrNotFound
	}
	m.writes++
	delete(m.notes, noteID)
	return nil
}

func (m *memoryStore) AppendHistoryEvent(ctx context.Context, e *domain.HistoryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyErr != nil {
		return m.historyErr
	}
	e.Timestamp = m.now()
	cp := *e
	m.history = append(m.history, &cp)
	return nil
}

func (m *memoryStore) ListHistoryEvents(ctx context.Context, candidateID string) ([]*domain.HistoryEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]*domain.HistoryEvent, 0)
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].CandidateID == candidateID {
			cp := *m.history[i]
			events = append(events, &cp)
		}
	}
	return events, nil
}

func (m *memoryStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.CreatedAt = m.now()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *memoryStore) GetNotification(ctx context.Context, uid, id string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != uid {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memoryStore) ListNotifications(ctx context.Context, uid string) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Notification, 0)
	for _, n := range m.notifications {
		if n.UserID == uid {
			cp := *n
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memoryStore) MarkNotificationRead(ctx context.Context, uid, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != uid {
		return domain.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (m *memoryStore) notificationsFor(uid string) []*domain.Notification {
	ns, _ := m.ListNotifications(context.Background(), uid)
	return ns
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type fakeMailQueue struct {
	mu       sync.Mutex
	messages []domain.MailMessage
}

func (f *fakeMailQueue) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

var errStoreDown = errors.New("store unavailable")

type fixture struct {
	svc   *Service
	store *memoryStore
	mail  *fakeMailQueue
}

var (
	alice = &domain.User{UID: "u-alice", Name: "Alice", Email: "alice@example.com"}
	bob   = &domain.User{UID: "u-bob", Name: "Bob", Email: "bob@example.com"}
	al    = &domain.User{UID: "u-al", Name: "Al", Email: "al@example.com"}
	carol = &domain.User{UID: "u-carol", Name: "Carol", Email: "carol@example.com"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemoryStore(alice, bob, al, carol)
	mail := &fakeMailQueue{}
	return &fixture{
		svc:   NewService(store, realtime.NewBroker(client), mail),
		store: store,
		mail:  mail,
	}
}
