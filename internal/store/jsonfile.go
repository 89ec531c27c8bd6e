package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserFile persists the credential collection as one pretty-printed JSON
// document. Concurrent writers are last-write-wins; the atomic replace
// keeps readers from ever seeing a truncated file.
type UserFile struct {
	Path string
}

func NewUserFile(path string) *UserFile {
	return &UserFile{Path: path}
}

func (f *UserFile) Load(_ context.Context) (map[string]UserRecord, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]UserRecord{}, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	var users map[string]UserRecord
	if err := json.Unmarshal(raw, &users); err != nil || users == nil {
		// Corrupt store: self-repair by starting over empty.
		return map[string]UserRecord{}, nil
	}
	return users, nil
}

func (f *UserFile) Save(_ context.Context, users map[string]UserRecord) error {
	raw, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}
	return writeFileAtomic(f.Path, raw, 0o600)
}

// writeFileAtomic writes to a temp file in the target directory, syncs and
// renames it over the destination. Rename is atomic on POSIX filesystems,
// so a crash mid-write never leaves a partial file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
