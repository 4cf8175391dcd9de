package history

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]map[int]Record)
	return nil
}

func (s *MemoryStore) SaveEpoch(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	epochs, ok := s.runs[rec.Run]
	if !ok {
		epochs = make(map[int]Record)
		s.runs[rec.Run] = epochs
	}
	epochs[rec.Epoch] = rec
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, run string) ([]Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, errNotInitialized
	}
	epochs, ok := s.runs[run]
	if !ok {
		return nil, false, nil
	}
	retVal := make([]Record, 0, len(epochs))
	for _, rec := range epochs {
		retVal = append(retVal, rec)
	}
	sort.Slice(retVal, func(i, j int) bool { return retVal[i].Epoch < retVal[j].Epoch })
	return retVal, true, nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errNotInitialized
	}
	retVal := make([]string, 0, len(s.runs))
	for run := range s.runs {
		retVal = append(retVal, run)
	}
	sort.Strings(retVal)
	return retVal, nil
}
