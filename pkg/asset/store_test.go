package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/util"
)

func TestMemoryStore(t *testing.T) {
	files := map[string]string{"b.css": "b{}", "a.js": "x"}
	s := NewMemoryStore(files)
	files["b.css"] = "changed"

	assert.Equal(t, []string{"a.js", "b.css"}, s.Names())

	text, err := s.Text("b.css")
	require.NoError(t, err)
	assert.Equal(t, "b{}", text)

	require.NoError(t, s.Replace("b.css", "c{}"))
	size, err := s.Size("b.css")
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	_, err = s.Text("missing")
	assert.ErrorIs(t, err, ErrUnknownArtifact)
	assert.ErrorIs(t, s.Replace("missing", ""), ErrUnknownArtifact)
}

func writeArtifact(t *testing.T, root, name, text string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestDirStore_Names(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "css/app.css", "a{color:red}")
	writeArtifact(t, root, "js/app.js", "x")
	writeArtifact(t, root, "js/app.js.map", "{}")
	writeArtifact(t, root, "node_modules/dep/index.js", "y")
	writeArtifact(t, root, "index.html", "<html></html>")

	s, err := NewDirStore(root, []string{"**/*.css", "**/*.js"}, []string{"node_modules"}, nil, util.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"css/app.css", "js/app.js"}, s.Names())

	all, err := NewDirStore(root, nil, nil, nil, util.Discard())
	require.NoError(t, err)
	assert.Len(t, all.Names(), 5)
}

func TestDirStore_InvalidInput(t *testing.T) {
	root := t.TempDir()

	_, err := NewDirStore(root, []string{"["}, nil, nil, nil)
	assert.Error(t, err)

	_, err = NewDirStore(filepath.Join(root, "missing"), nil, nil, nil, nil)
	assert.Error(t, err)

	writeArtifact(t, root, "file", "x")
	_, err = NewDirStore(filepath.Join(root, "file"), nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestDirStore_Replace(t *testing.T) {
	root := t.TempDir()
	writeArtifact(t, root, "css/app.css", "a{color:red;margin:0}")

	cache := util.NewFileCache(util.DefaultFileCacheConfig())
	defer cache.Close()

	s, err := NewDirStore(root, nil, nil, cache, util.Discard())
	require.NoError(t, err)

	text, err := s.Text("css/app.css")
	require.NoError(t, err)
	assert.Equal(t, "a{color:red;margin:0}", text)

	require.NoError(t, s.Replace("css/app.css", "a{margin:0}"))

	text, err = s.Text("css/app.css")
	require.NoError(t, err)
	assert.Equal(t, "a{margin:0}", text)

	size, err := s.Size("css/app.css")
	require.NoError(t, err)
	assert.Equal(t, len("a{margin:0}"), size)

	info, err := os.Stat(filepath.Join(root, "css", "app.css"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Join(root, "css"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be gone")
}

func TestDirStore_MoreArtifactsThanCacheSlots(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		writeArtifact(t, root, fmt.Sprintf("css/%03d.css", i), "a{color:red;margin:0}")
	}

	cache := util.NewFileCache(&util.FileCacheConfig{MaxFiles: 8, Logger: util.Discard()})
	defer cache.Close()

	s, err := NewDirStore(root, nil, nil, cache, util.Discard())
	require.NoError(t, err)

	css, err := NewPipeline(s, DevLocator(), ProductionFilter(), util.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, css, "color:red")
	assert.Zero(t, cache.Size())

	text, err := s.Text("css/039.css")
	require.NoError(t, err)
	assert.NotContains(t, text, "color")
}

func TestDirStore_Unknown(t *testing.T) {
	s, err := NewDirStore(t.TempDir(), nil, nil, nil, nil)
	require.NoError(t, err)

	_, err = s.Text("nope.css")
	assert.ErrorIs(t, err, ErrUnknownArtifact)
	_, err = s.Size("nope.css")
	assert.ErrorIs(t, err, ErrUnknownArtifact)
	assert.ErrorIs(t, s.Replace("nope.css", ""), ErrUnknownArtifact)
}
