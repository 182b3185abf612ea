package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps settings in a single YAML file. Writes go to a temporary
// file in the same directory and are renamed into place.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

// Load decodes the file over Default, so fields added since the file was
// written keep their defaults.
func (f *FileStore) Load(ctx context.Context) (SceneSettings, error) {
	if err := ctx.Err(); err != nil {
		return SceneSettings{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileStore) load() (SceneSettings, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return SceneSettings{}, ErrNotFound
	}
	if err != nil {
		return SceneSettings{}, fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return SceneSettings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.Validate(); err != nil {
		return SceneSettings{}, err
	}
	return s, nil
}

func (f *FileStore) Save(ctx context.Context, s SceneSettings) (bool, error) {
	return f.SaveIf(ctx, s, nil)
}

// SaveIf checks cond against the checksum of the decoded file, so a file
// edited by hand is compared by content rather than formatting.
func (f *FileStore) SaveIf(ctx context.Context, s SceneSettings, cond Precondition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.Validate(); err != nil {
		return false, err
	}
	b, err := Encode(s)
	if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cond != nil {
		var sum uint64
		current, err := f.load()
		found := err == nil
		if found {
			if sum, err = Checksum(current); err != nil {
				return false, err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return false, err
		}
		if !cond(sum, found) {
			return false, ErrPreconditionFailed
		}
	}

	if current, err := os.ReadFile(f.path); err == nil && xxhash.Sum64(current) == xxhash.Sum64(b) {
		return false, nil
	}
	if err := f.writeAtomic(b); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FileStore) writeAtomic(b []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove settings: %w", err)
	}
	return nil
}
