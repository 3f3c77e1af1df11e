// Package redis stores the workspace snapshot under a single Redis key.
package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lalith-99/echohub/internal/repository"
	"github.com/lalith-99/echohub/internal/store"
)

type SnapshotStore struct {
	client *goredis.Client
	key    string
}

// New connects to redisURL ("redis://host:6379/0") and pings it.
func New(ctx context.Context, redisURL, key string) (*SnapshotStore, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewSnapshotStore(client, key), nil
}

func NewSnapshotStore(client *goredis.Client, key string) *SnapshotStore {
	return &SnapshotStore{client: client, key: key}
}

func (s *SnapshotStore) Load(ctx context.Context) (*store.Snapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return repository.Decode(data)
}

func (s *SnapshotStore) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := repository.Encode(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Health pings the server.
func (s *SnapshotStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
