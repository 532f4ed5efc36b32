package history

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the ring size used when NewMemoryStore gets zero.
const DefaultCapacity = 200

// MemoryStore keeps the most recent runs in a fixed-size ring.
// Older runs are overwritten once the ring is full.
type MemoryStore struct {
	mu    sync.RWMutex
	runs  []Run
	next  int
	count int
}

// NewMemoryStore creates a ring holding at most capacity runs.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{runs: make([]Run, capacity)}
}

func (m *MemoryStore) Record(_ context.Context, run Run) error {
	if run.ID == "" {
		return ErrInvalidRun
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[m.next] = run
	m.next = (m.next + 1) % len(m.runs)
	if m.count < len(m.runs) {
		m.count++
	}
	return nil
}

func (m *MemoryStore) Recent(_ context.Context, limit int) ([]Run, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, m.count)
	out := make([]Run, 0, n)
	for i := 1; i <= n; i++ {
		idx := (m.next - i + len(m.runs)) % len(m.runs)
		out = append(out, m.runs[idx])
	}
	return out, nil
}

func (m *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rebuild the ring oldest-first without the expired runs.
	kept := make([]Run, 0, m.count)
	for i := m.count; i >= 1; i-- {
		r := m.runs[(m.next-i+len(m.runs))%len(m.runs)]
		if r.StartedAt.Before(before) {
			continue
		}
		kept = append(kept, r)
	}

	removed := int64(m.count - len(kept))
	clear(m.runs)
	copy(m.runs, kept)
	m.count = len(kept)
	m.next = len(kept) % len(m.runs)
	return removed, nil
}

// Len returns the number of runs held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}
