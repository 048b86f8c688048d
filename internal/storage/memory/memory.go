// Package memory is the volatile fallback backend used when no Redis
// credentials are configured. It lives for the process lifetime only and is
// refused in hosted production deployments.
package memory

import (
	"context"
	"sync"

	"github.com/boden-crm/inbox-service/internal/storage"
)

type MemoryKV struct {
	mtx    sync.RWMutex
	hashes map[string]map[string]string
	lists  map[string][]string
	sets   map[string]map[string]struct{}
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][]string),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (m *MemoryKV) HGet(_ context.Context, key, field string) (string, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	val, ok := m.hashes[key][field]
	if !ok {
		return "", storage.ErrNotFound
	}
	return val, nil
}

func (m *MemoryKV) HSet(_ context.Context, key, field, value string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.hashes[key] == nil {
		m.hashes[key] = make(map[string]string)
	}
	m.hashes[key][field] = value
	return nil
}

func (m *MemoryKV) HVals(_ context.Context, key string) ([]string, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	vals := make([]string, 0, len(m.hashes[key]))
	for _, v := range m.hashes[key] {
		vals = append(vals, v)
	}
	return vals, nil
}

func (m *MemoryKV) RPush(_ context.Context, key, value string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *MemoryKV) LRange(_ context.Context, key string) ([]string, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	vals := make([]string, len(m.lists[key]))
	copy(vals, m.lists[key])
	return vals, nil
}

func (m *MemoryKV) SAdd(_ context.Context, key, member string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.sets[key] == nil {
		m.sets[key] = make(map[string]struct{})
	}
	m.sets[key][member] = struct{}{}
	return nil
}

func (m *MemoryKV) SMembers(_ context.Context, key string) ([]string, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, key := range keys {
		delete(m.hashes, key)
		delete(m.lists, key)
		delete(m.sets, key)
	}
	return nil
}
