package palette

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrImportNotFound is returned when an imported file does not exist.
	ErrImportNotFound = errors.New("imported stylesheet not found")

	// ErrImportCycle is returned when a file imports itself, directly or not.
	ErrImportCycle = errors.New("import cycle")
)

// PackagePrefix marks an import rooted in the package directory
// (node_modules) instead of the importing file's directory.
const PackagePrefix = "~"

var importLine = regexp.MustCompile(`@import ["'](.*)["'];`)

// SourceReader reads stylesheet sources. util.FileCache satisfies it.
type SourceReader interface {
	ReadSource(path string) ([]byte, error)
}

// OSReader reads straight from disk.
type OSReader struct{}

// ReadSource implements SourceReader.
func (OSReader) ReadSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Inliner flattens `@import` chains into one text.
type Inliner struct {
	Reader      SourceReader
	PackageRoot string
	Logger      *slog.Logger
}

// NewInliner returns an inliner. A nil reader reads from disk.
func NewInliner(reader SourceReader, packageRoot string, logger *slog.Logger) *Inliner {
	if reader == nil {
		reader = OSReader{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inliner{Reader: reader, PackageRoot: packageRoot, Logger: logger}
}

// Inline returns the contents of path with every import line replaced by
// the (recursively inlined) imported file, plus the absolute path of every
// file that was read in visiting order. A missing file aborts the whole pass.
func (in *Inliner) Inline(path string) (string, []string, error) {
	var files []string
	text, err := in.inline(path, map[string]bool{}, &files)
	if err != nil {
		return "", files, err
	}
	return text, files, nil
}

func (in *Inliner) inline(path string, stack map[string]bool, files *[]string) (string, error) {
	// Absolute paths keep cache keys and watch events in agreement.
	clean, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if stack[clean] {
		return "", fmt.Errorf("%w: %s", ErrImportCycle, clean)
	}

	data, err := in.Reader.ReadSource(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrImportNotFound, clean)
		}
		return "", fmt.Errorf("read %s: %w", clean, err)
	}
	*files = append(*files, clean)

	stack[clean] = true
	defer delete(stack, clean)

	dir := filepath.Dir(clean)
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if !strings.HasPrefix(line, "@import") {
			continue
		}
		m := importLine.FindStringSubmatch(line)
		if m == nil {
			in.Logger.Warn("unrecognized import line left as-is",
				"file", clean,
				"line", i+1)
			continue
		}

		target := in.resolveImport(dir, m[1])
		body, err := in.inline(target, stack, files)
		if err != nil {
			return "", err
		}
		lines[i] = body
	}

	return strings.Join(lines, "\n"), nil
}

// resolveImport maps an import reference to a file path.
func (in *Inliner) resolveImport(dir, ref string) string {
	if !strings.HasSuffix(ref, ".less") {
		ref += ".less"
	}
	if strings.HasPrefix(ref, PackagePrefix) {
		return filepath.Join(in.PackageRoot, strings.TrimPrefix(ref, PackagePrefix))
	}
	return filepath.Join(dir, ref)
}
