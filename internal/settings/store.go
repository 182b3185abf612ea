package settings

import "context"

// Store persists one SceneSettings document.
type Store interface {
	// Load returns ErrNotFound when nothing has been saved.
	Load(ctx context.Context) (SceneSettings, error)
	// Save validates and stores s. It reports false when the stored
	// document already had identical content.
	Save(ctx context.Context, s SceneSettings) (bool, error)
	// SaveIf is Save guarded by cond, evaluated against the stored
	// document under the same lock as the write. A nil cond always holds.
	// It returns ErrPreconditionFailed when cond rejects.
	SaveIf(ctx context.Context, s SceneSettings, cond Precondition) (bool, error)
	// Clear removes saved settings. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Precondition inspects the checksum of the stored document; found is false
// when nothing is stored.
type Precondition func(sum uint64, found bool) bool
