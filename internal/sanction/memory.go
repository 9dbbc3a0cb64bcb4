package sanction

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used in tests and as a fallback when no
// database is configured. Records and statuses are copied on the way in and
// out so callers cannot mutate stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*Record
	order    []uuid.UUID // append order, oldest first
	statuses map[uuid.UUID]*UserStatus
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[uuid.UUID]*Record),
		statuses: make(map[uuid.UUID]*UserStatus),
	}
}

func (s *MemoryStore) AppendRecord(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneRecord(record)
	s.records[record.ID] = clone
	s.order = append(s.order, record.ID)
	return nil
}

func (s *MemoryStore) GetRecord(id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) UpdateRecord(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; !ok {
		return ErrRecordNotFound
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *MemoryStore) GetRecordsByUser(userID uuid.UUID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []Record{}
	for _, id := range s.order {
		if r := s.records[id]; r.UserID == userID {
			records = append(records, *cloneRecord(r))
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *MemoryStore) ListRecords(activeOnly bool) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []Record{}
	for _, id := range s.order {
		r := s.records[id]
		if activeOnly && r.Status != StatusActive {
			continue
		}
		records = append(records, *cloneRecord(r))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *MemoryStore) GetStatus(userID uuid.UUID) (*UserStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[userID]
	if !ok {
		return nil, nil
	}
	clone := *status
	return &clone, nil
}

func (s *MemoryStore) PutStatus(status *UserStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *status
	s.statuses[status.UserID] = &clone
	return nil
}

func cloneRecord(r *Record) *Record {
	clone := *r
	clone.Kinds = append(clone.Kinds[:0:0], r.Kinds...)
	return &clone
}
