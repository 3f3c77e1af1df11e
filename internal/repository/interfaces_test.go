package repository

import (
	"context"
	"testing"

	"github.com/lalith-99/echohub/internal/models"
	"github.com/lalith-99/echohub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUsesWireNames(t *testing.T) {
	state := store.New()
	state.AddUser(&models.User{ID: 1, Handle: "alice"})

	data, err := Encode(state.Snapshot())
	require.NoError(t, err)

	assert.Contains(t, string(data), `"handleStr":"alice"`)
	assert.Contains(t, string(data), `"maxId":0`)
}

func TestMemorySnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySnapshots()

	snap, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	state := store.New()
	state.AddChannel(&models.Channel{Name: "general"})
	require.NoError(t, m.Save(ctx, state.Snapshot()))

	snap, err = m.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Channels, 1)
	assert.Equal(t, "general", snap.Channels[0].Name)
	assert.Equal(t, 1, m.Saves())
}

func TestMemorySnapshotsHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, NewMemorySnapshots().Save(ctx, store.New().Snapshot()))
}
