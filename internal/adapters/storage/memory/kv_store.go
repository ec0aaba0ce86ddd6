package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

// KVStore is an in-memory domain.HistoryStore.
// It is NOT persistent and is only suitable for development / local mode.
type KVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{
		values: make(map[string][]byte),
	}
}

func (s *KVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = slices.Clone(value)
	return nil
}

// GetByPrefix returns matching entries ordered by key.
func (s *KVStore) GetByPrefix(_ context.Context, prefix string) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Entry
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, domain.Entry{Key: k, Value: slices.Clone(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Len is the number of stored keys.
func (s *KVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
