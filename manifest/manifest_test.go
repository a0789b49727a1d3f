package manifest

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/stabframe/internal/fs"
)

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(fs.LocalFS{}, dir)

	m := &RunManifest{
		Seed:          42,
		NumQubits:     8,
		NumShots:      1000,
		CircuitDigest: 0xdeadbeef,
		GateHistogram: map[string]int{"H": 8, "M": 8},
		UsedQubits:    []uint32{0, 2, 7},
		StartedAt:     time.Unix(1700000000, 0).UTC(),
		Done:          time.Unix(1700000001, 0).UTC(),
	}

	filename, err := store.Save(m)
	require.NoError(t, err)
	assert.NotEmpty(t, filename)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, m.Seed, loaded.Seed)
	assert.Equal(t, m.NumQubits, loaded.NumQubits)
	assert.Equal(t, m.NumShots, loaded.NumShots)
	assert.Equal(t, m.CircuitDigest, loaded.CircuitDigest)
	assert.Equal(t, m.GateHistogram, loaded.GateHistogram)
	assert.Equal(t, m.UsedQubits, loaded.UsedQubits)
	assert.True(t, loaded.IsDone())
}

func TestStore_LoadWithNothingSavedReturnsNotExist(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(fs.LocalFS{}, dir)

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStore_SaveTwiceMovesCurrentForward(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(fs.LocalFS{}, dir)

	first := &RunManifest{Seed: 1, NumQubits: 1, NumShots: 1}
	second := &RunManifest{Seed: 2, NumQubits: 1, NumShots: 1}

	firstName, err := store.Save(first)
	require.NoError(t, err)
	secondName, err := store.Save(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstName, secondName)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.Seed)
}

func TestRunManifest_IsDone(t *testing.T) {
	m := RunManifest{}
	assert.False(t, m.IsDone())
	m.Done = time.Now()
	assert.True(t, m.IsDone())
}
