package repository

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/lalith-99/echohub/internal/store"
)

// SnapshotRepository persists the whole workspace as one document. Every
// backend is last-write-wins: Save replaces whatever was stored before.
type SnapshotRepository interface {
	// Load returns the stored snapshot, or nil, nil when nothing has been
	// saved yet.
	Load(ctx context.Context) (*store.Snapshot, error)

	Save(ctx context.Context, snap *store.Snapshot) error

	Close() error
}

// Encode and Decode are the one wire format shared by every backend.
func Encode(snap *store.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (*store.Snapshot, error) {
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// MemorySnapshots keeps the encoded snapshot in memory. Used by tests and
// by ENV=test runs.
type MemorySnapshots struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{}
}

func (m *MemorySnapshots) Load(ctx context.Context) (*store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, nil
	}
	return Decode(m.data)
}

func (m *MemorySnapshots) Save(ctx context.Context, snap *store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (m *MemorySnapshots) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemorySnapshots) Close() error { return nil }
