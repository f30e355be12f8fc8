package memory

import (
	"context"
	"sync"

	interfaces "papertrader/internal/domain/interfaces"
)

// ConfigStore is a map-backed key-value store.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]string

	// SetErrs makes Set fail for the listed keys.
	SetErrs map[string]error
}

var _ interfaces.ConfigStore = (*ConfigStore)(nil)

func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]string)}
}

func (s *ConfigStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *ConfigStore) Set(_ context.Context, key, value, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.SetErrs[key]; err != nil {
		return err
	}
	s.values[key] = value
	return nil
}
