// Package asset pulls stylesheet text out of build artifacts and writes
// the color-stripped remainder back in place.
package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/lesstheme/pkg/util"
)

// ErrUnknownArtifact is returned for names a Store does not hold.
var ErrUnknownArtifact = errors.New("unknown artifact")

// Store is the artifact set of one build. Artifacts are read and replaced,
// never created, renamed or deleted.
type Store interface {
	// Names lists artifact names in a stable order.
	Names() []string

	// Text returns the current text of name.
	Text(name string) (string, error)

	// Size returns the current length of name in bytes.
	Size(name string) (int, error)

	// Replace swaps the text of name.
	Replace(name, text string) error
}

// MemoryStore keeps artifacts in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemoryStore returns a store holding a copy of files.
func NewMemoryStore(files map[string]string) *MemoryStore {
	s := &MemoryStore{files: make(map[string]string, len(files))}
	for k, v := range files {
		s.files[k] = v
	}
	return s
}

// Names implements Store.
func (s *MemoryStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for name := range s.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text implements Store.
func (s *MemoryStore) Text(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	text, ok := s.files[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownArtifact, name)
	}
	return text, nil
}

// Size implements Store.
func (s *MemoryStore) Size(name string) (int, error) {
	text, err := s.Text(name)
	return len(text), err
}

// Replace implements Store.
func (s *MemoryStore) Replace(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownArtifact, name)
	}
	s.files[name] = text
	return nil
}

// DirStore serves the files under Root as artifacts named by their
// slash-separated path relative to Root.
type DirStore struct {
	Root string

	// Include and Exclude are doublestar patterns matched against names.
	// An empty Include admits every file.
	Include []string
	Exclude []string

	// Cache serves reads when set. Artifacts are released right after
	// they are read, so any number of them fits a capped cache.
	Cache util.FileCache

	Logger *slog.Logger
}

// NewDirStore validates the patterns and returns a store rooted at root.
func NewDirStore(root string, include, exclude []string, cache util.FileCache, logger *slog.Logger) (*DirStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid artifact pattern: %s", pattern)
		}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact root %s is not a directory", root)
	}
	return &DirStore{Root: root, Include: include, Exclude: exclude, Cache: cache, Logger: logger}, nil
}

// Names implements Store. Walk errors are logged and skipped.
func (s *DirStore) Names() []string {
	var names []string

	_ = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.Logger.Warn("walk error", "path", path, "error", err)
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range s.Exclude {
			if m, _ := doublestar.Match(pattern, rel); m {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}

		if len(s.Include) > 0 {
			matched := false
			for _, pattern := range s.Include {
				if m, _ := doublestar.Match(pattern, rel); m {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}

		names = append(names, rel)
		return nil
	})

	sort.Strings(names)
	return names
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

// Text implements Store.
func (s *DirStore) Text(name string) (string, error) {
	path := s.path(name)

	var (
		data []byte
		err  error
	)
	if s.Cache != nil {
		data, err = s.Cache.ReadSource(path)
		s.Cache.Invalidate(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrUnknownArtifact, name)
		}
		return "", fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return string(data), nil
}

// Size implements Store.
func (s *DirStore) Size(name string) (int, error) {
	info, err := os.Stat(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownArtifact, name)
		}
		return 0, err
	}
	return int(info.Size()), nil
}

// Replace implements Store. The file is rewritten through a temporary
// file in the same directory and renamed over the original.
func (s *DirStore) Replace(name, text string) error {
	path := s.path(name)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnknownArtifact, name)
		}
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".lesstheme-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}

	if s.Cache != nil {
		s.Cache.Invalidate(path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact %s: %w", name, err)
	}
	return nil
}
