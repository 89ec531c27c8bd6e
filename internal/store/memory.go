package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process backend implementing both store contracts.
// Used by tests and as a throwaway mode for local hacking.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]UserRecord
}

func NewMemory() *MemoryStore {
	return &MemoryStore{users: map[string]UserRecord{}}
}

func (m *MemoryStore) Load(_ context.Context) (map[string]UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]UserRecord, len(m.users))
	for k, v := range m.users {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, users map[string]UserRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]UserRecord, len(users))
	for k, v := range users {
		m.users[k] = v
	}
	return nil
}

// MemoryLeaderboard implements LeaderboardStore in memory.
type MemoryLeaderboard struct {
	mu      sync.Mutex
	entries []LeaderboardEntry
}

func NewMemoryLeaderboard() *MemoryLeaderboard {
	return &MemoryLeaderboard{}
}

func (m *MemoryLeaderboard) Load(_ context.Context) ([]LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LeaderboardEntry(nil), m.entries...), nil
}

func (m *MemoryLeaderboard) Save(_ context.Context, entries []LeaderboardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]LeaderboardEntry(nil), entries...)
	return nil
}
