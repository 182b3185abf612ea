package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.InDelta(t, -57.2958, s.Moon.RotX, 1e-4)
	assert.Equal(t, 4.0, s.Moon.ScaleX)
	assert.Equal(t, 0.5, s.Billboard.Opacity)
	assert.False(t, s.Bloom.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SceneSettings)
	}{
		{"bad colour", func(s *SceneSettings) { s.Sun.Color = "red" }},
		{"short colour", func(s *SceneSettings) { s.Water.Color = "#fff" }},
		{"ambient too bright", func(s *SceneSettings) { s.Ambient.Intensity = 4 }},
		{"negative sun", func(s *SceneSettings) { s.Sun.Intensity = -1 }},
		{"opacity", func(s *SceneSettings) { s.Billboard.Opacity = 1.5 }},
		{"flat moon", func(s *SceneSettings) { s.Moon.ScaleY = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}

	s := Default()
	s.Ambient.Color = "#A0b1C2"
	assert.NoError(t, s.Validate())
}

func TestChecksum(t *testing.T) {
	a, err := Checksum(Default())
	require.NoError(t, err)
	b, err := Checksum(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Bloom.Enabled = true
	c, err := Checksum(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	assert.Equal(t, `"ff"`, ETag(255))
}

func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	s := Default()
	s.Water.PosY = -2
	changed, err := store.Save(ctx, s)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Save(ctx, s)
	require.NoError(t, err)
	assert.False(t, changed, "identical content is not rewritten")

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	bad := Default()
	bad.Billboard.Opacity = 2
	_, err = store.Save(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Save(cancelled, s)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	var seen []SceneSettings
	store.OnChange(func(_, newValue SceneSettings) { seen = append(seen, newValue) })

	testStore(t, store)
	assert.Len(t, seen, 1)
	assert.Equal(t, uint64(2), store.Version())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	testStore(t, NewFileStore(path))
}

func TestStoresSaveIf(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "settings.yaml"))
		},
	}
	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)
			matches := func(want uint64) Precondition {
				return func(sum uint64, found bool) bool { return found && sum == want }
			}

			_, err := store.SaveIf(ctx, Default(), matches(0))
			assert.ErrorIs(t, err, ErrPreconditionFailed, "nothing stored yet")

			base := Default()
			changed, err := store.SaveIf(ctx, base, func(_ uint64, found bool) bool { return !found })
			require.NoError(t, err)
			require.True(t, changed)
			sum, err := Checksum(base)
			require.NoError(t, err)

			var wins, conflicts atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					next := Default()
					next.Water.PosY = float64(100 + i)
					_, err := store.SaveIf(ctx, next, matches(sum))
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, ErrPreconditionFailed):
						conflicts.Add(1)
					}
				}(i)
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins.Load(), "one writer holding the checksum wins")
			assert.Equal(t, int32(7), conflicts.Load())

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.Water.PosY, 100.0)
		})
	}
}

func TestFileStoreFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bloom:\n  enabled: true\n"), 0o644))

	got, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Bloom.Enabled)
	assert.Equal(t, 1.76, got.Bloom.Strength)
	assert.Equal(t, Default().Moon, got.Moon)
}

func TestFileStoreRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fog: true\n"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "settings.yaml"))
	_, err := store.Save(context.Background(), Default())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.yaml", entries[0].Name())
}
