package history

import "sync"

// MemStore implements Store in memory, for tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	runs   []*Run
}

// NewMemStore returns an empty in-memory journal.
func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) RecordRun(r *Run) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CreatedAt == "" {
		r.CreatedAt = nowUTC()
	}
	s.nextID++
	r.ID = s.nextID
	stored := *r
	s.runs = append(s.runs, &stored)
	return r.ID, nil
}

func (s *MemStore) ListRuns(limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(*Run) bool { return true }, limit), nil
}

func (s *MemStore) ListRunsByProject(project string, limit int) ([]*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(r *Run) bool { return r.Project == project }, limit), nil
}

// filter returns matching runs newest first. Callers hold the lock.
func (s *MemStore) filter(keep func(*Run) bool, limit int) []*Run {
	var out []*Run
	for i := len(s.runs) - 1; i >= 0; i-- {
		if !keep(s.runs[i]) {
			continue
		}
		copied := *s.runs[i]
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
