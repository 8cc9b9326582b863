package marks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zsiec/chrono/internal/metrics"
)

const memoryBackend = "memory"

type memoryEntry struct {
	mark    Mark
	expires time.Time // zero when the store has no TTL
}

// MemoryStore keeps marks in process memory. It serves tests and
// deployments without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	marks map[string]*memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryStore{
		marks: make(map[string]*memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryStore) expiry(now time.Time) time.Time {
	if s.ttl == 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (e *memoryEntry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// lookup returns a live entry. Callers hold at least the read lock.
func (s *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	e, ok := s.marks[id]
	if !ok || !e.live(s.now()) {
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) Create(ctx context.Context, m *Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return err
	}
	if _, ok := s.lookup(m.ID); ok {
		return fmt.Errorf("mark %s: %w", m.ID, ErrMarkExists)
	}

	s.marks[m.ID] = &memoryEntry{mark: *m, expires: s.expiry(now)}
	metrics.SetActiveMarks(memoryBackend, s.liveCount())
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.lookup(id)
	if !ok {
		return nil, notFound(id)
	}
	m := e.mark
	return &m, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Mark, error) {
	return s.collect(func(*Mark) bool { return true }), nil
}

func (s *MemoryStore) Range(ctx context.Context, from, to uint64) ([]*Mark, error) {
	return s.collect(func(m *Mark) bool { return m.Ticks >= from && m.Ticks <= to }), nil
}

func (s *MemoryStore) collect(keep func(*Mark) bool) []*Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]*Mark, 0, len(s.marks))
	for _, e := range s.marks {
		if !e.live(now) {
			continue
		}
		m := e.mark
		if keep(&m) {
			out = append(out, &m)
		}
	}
	sortMarks(out)
	return out
}

func (s *MemoryStore) Update(ctx context.Context, m *Mark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(m.ID)
	if !ok {
		return notFound(m.ID)
	}
	now := s.now().UTC()
	m.CreatedAt = e.mark.CreatedAt
	m.UpdatedAt = now
	if err := m.Validate(); err != nil {
		return err
	}

	s.marks[m.ID] = &memoryEntry{mark: *m, expires: s.expiry(now)}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(id); !ok {
		return notFound(id)
	}
	delete(s.marks, id)
	metrics.SetActiveMarks(memoryBackend, s.liveCount())
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveCount(), nil
}

func (s *MemoryStore) liveCount() int {
	now := s.now()
	n := 0
	for _, e := range s.marks {
		if e.live(now) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops every mark.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = make(map[string]*memoryEntry)
	metrics.SetActiveMarks(memoryBackend, 0)
	return nil
}
