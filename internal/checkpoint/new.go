package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type implStore struct {
	dir string
}

// NewFileStore creates (and if needed mkdirs) the on-disk store for one run,
// rooted at <baseDir>/<runID>.
func NewFileStore(baseDir, runID string) (Store, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}
	return &implStore{dir: dir}, nil
}

// FileStoreFactory returns a Factory rooted at baseDir.
func FileStoreFactory(baseDir string) Factory {
	return func(runID string) (Store, error) {
		return NewFileStore(baseDir, runID)
	}
}

// partFileName is 1-indexed and zero-padded so part files sort naturally.
func partFileName(index int) string {
	return fmt.Sprintf("part_%03d.txt", index+1)
}

func (s *implStore) partPath(index int) string {
	return filepath.Join(s.dir, partFileName(index))
}

func (s *implStore) PartExists(index int) (bool, error) {
	_, err := os.Stat(s.partPath(index))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat part %d: %w", index, err)
}

func (s *implStore) ReadPart(index int) (string, error) {
	data, err := os.ReadFile(s.partPath(index))
	if err != nil {
		return "", fmt.Errorf("read part %d: %w", index, err)
	}
	return string(data), nil
}

func (s *implStore) WritePart(index int, text string) error {
	text = strings.TrimRight(text, " \t\n")
	if err := os.WriteFile(s.partPath(index), []byte(text), 0644); err != nil {
		return fmt.Errorf("write part %d: %w", index, err)
	}
	return nil
}

func (s *implStore) WriteMeta(meta RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run meta: %w", err)
	}
	path := filepath.Join(s.dir, "run_meta.json")
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write run meta: %w", err)
	}
	return nil
}

func (s *implStore) WriteArtifact(name, text string) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(text), 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *implStore) Dir() string {
	return s.dir
}
