package theme

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/asset"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/probe/probetest"
	"github.com/gnana997/lesstheme/pkg/util"
)

func writeLess(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	writeLess(t, dir, "colors.less", "@blue-6: #1890ff;\n")
	varFile := writeLess(t, dir, "vars.less", `@import "./colors";
@primary-color: @blue-6;
@text-color: #333333;
@font-size-base: 14px;
`)
	return Config{
		ThemeVariables: []string{"@primary-color"},
		SelfVariables:  []string{"@text-color"},
		VarFile:        varFile,
	}
}

func newTestBuilder(t *testing.T, cfg Config) *Builder {
	t.Helper()
	b, err := NewBuilder(cfg, &probetest.Compiler{}, nil, nil, util.Discard())
	require.NoError(t, err)
	return b
}

func TestNewBuilder_NoVariables(t *testing.T) {
	_, err := NewBuilder(Config{}, &probetest.Compiler{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewBuilder_BadPattern(t *testing.T) {
	_, err := NewBuilder(Config{ThemeVariables: []string{"@a"}, CustomColorPatterns: []string{"("}}, &probetest.Compiler{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestBuilder_Prepare(t *testing.T) {
	b := newTestBuilder(t, testConfig(t))

	p, err := b.Prepare(context.Background())
	require.NoError(t, err)

	assert.Len(t, p.Files, 2)
	assert.Equal(t, "#1890ff", p.Resolution.Mapping["@primary-color"])
	assert.False(t, p.Resolution.Mapping.Has("@font-size-base"))

	// base, nine levels and the self variable
	assert.Len(t, p.Specs, 11)
	assert.Len(t, p.Probe.Mapping, 11)
	assert.Empty(t, p.Probe.Missing)
	assert.Equal(t, 2, p.Probe.Assignment.Len())

	suffix, err := b.LoaderSuffix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p.Probe.LoaderSuffix(), suffix, "second pass must reuse the sentinels")
	assert.Equal(t, 11, strings.Count(suffix, ";\n")+1)
}

func TestBuilder_PrepareSkipsUnresolvedVariables(t *testing.T) {
	cfg := testConfig(t)
	cfg.ThemeVariables = append(cfg.ThemeVariables, "@link-color")
	cfg.SelfVariables = append(cfg.SelfVariables, "@font-size-base")
	b := newTestBuilder(t, cfg)

	p, err := b.Prepare(context.Background())
	require.NoError(t, err)
	assert.Len(t, p.Specs, 11)
	for _, s := range p.Specs {
		assert.NotEqual(t, "@link-color", s.Base)
		assert.NotEqual(t, "@font-size-base", s.Base)
	}

	bundle := NewBundle("", nil, p.Probe)
	assert.Equal(t, []string{"@primary-color", "@text-color"}, bundle.Bases)
}

func TestBuilder_PrepareNothingResolved(t *testing.T) {
	cfg := testConfig(t)
	cfg.ThemeVariables = []string{"@link-color"}
	cfg.SelfVariables = []string{"@font-size-base"}
	b := newTestBuilder(t, cfg)

	_, err := b.Prepare(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no theme variable resolves")
}

func TestBuilder_Resolve(t *testing.T) {
	b, err := NewBuilder(testConfig(t), nil, nil, nil, util.Discard())
	require.NoError(t, err)

	res, err := b.Resolve()
	require.NoError(t, err)
	assert.Equal(t, palette.Mapping{
		"@blue-6":        "#1890ff",
		"@primary-color": "#1890ff",
		"@text-color":    "#333333",
	}, res.Mapping)
	require.Len(t, res.Rejected(), 1)
	assert.Equal(t, palette.ReasonNotColor, res.Rejected()[0].Reason)
}

func TestBuilder_PrepareMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.VarFile = filepath.Join(t.TempDir(), "missing.less")
	b := newTestBuilder(t, cfg)

	_, err := b.Prepare(context.Background())
	assert.ErrorIs(t, err, palette.ErrImportNotFound)
}

func TestBuilder_Build(t *testing.T) {
	ctx := context.Background()
	b := newTestBuilder(t, testConfig(t))

	palettes, err := OpenPaletteStore(filepath.Join(t.TempDir(), "palette.db"))
	require.NoError(t, err)
	defer palettes.Close()
	b.Palettes = palettes

	p, err := b.Prepare(ctx)
	require.NoError(t, err)
	m := p.Probe.Mapping

	// The application was compiled against the loader suffix, so its
	// output carries the probe colors.
	store := asset.NewMemoryStore(map[string]string{
		"css/app.css": ".btn{color:" + m["@primary-color"] + ";padding:4px}\n" +
			".btn:hover{border:1px solid " + m["@primary-5"] + "}\n" +
			".txt{color:" + m["@text-color"] + "}",
		"js/app.js":       `eval("exports.push([module.i, \".link{color:` + m["@primary-7"] + `;margin:0}\\n\", \"\"]);");`,
		"0.hot-update.js": "/* hmr */",
	})
	b.Store = store

	bundle, err := b.Build(ctx)
	require.NoError(t, err)

	level := func(name string) string {
		s, ok := p.Probe.Spec(name)
		require.True(t, ok)
		return s.Expression
	}
	assert.Equal(t,
		".btn{color:@primary-color}"+
			".btn:hover{border-color:"+level("@primary-5")+"}"+
			".txt{color:@text-color}"+
			".link{color:"+level("@primary-7")+"}",
		bundle.Stylesheet)
	assert.Equal(t, Palette{"@primary-color": "#1890ff", "@text-color": "#333333"}, bundle.Palette)
	assert.Same(t, bundle, b.Last())

	css, err := store.Text("css/app.css")
	require.NoError(t, err)
	assert.Equal(t, ".btn{padding:4px}\n.btn:hover{border-width:1px;border-style:solid}", css)

	js, err := store.Text("js/app.js")
	require.NoError(t, err)
	assert.Equal(t, `eval("exports.push([module.i, \".link{margin:0}\\n\", \"\"]);");`, js)

	hot, err := store.Text("0.hot-update.js")
	require.NoError(t, err)
	assert.Equal(t, "/* hmr */", hot, "first build has nothing to hot-patch")

	saved, ok, err := palettes.Load(ctx, DefaultPaletteKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bundle.Palette, saved)

	// A second build over the already reduced artifacts yields a new
	// stylesheet and patches the hot update.
	second, err := b.Build(ctx)
	require.NoError(t, err)
	assert.True(t, second.Changed(bundle))

	hot, err = store.Text("0.hot-update.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hot, ";(function(){window.__lessContent='';"))
	assert.True(t, strings.HasSuffix(hot, "/* hmr */"))
}

func TestBuilder_SentinelsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	dbPath := filepath.Join(t.TempDir(), "palette.db")

	first := newTestBuilder(t, cfg)
	palettes, err := OpenPaletteStore(dbPath)
	require.NoError(t, err)
	first.Palettes = palettes

	p1, err := first.Prepare(ctx)
	require.NoError(t, err)
	require.NoError(t, palettes.Close())

	second := newTestBuilder(t, cfg)
	palettes, err = OpenPaletteStore(dbPath)
	require.NoError(t, err)
	defer palettes.Close()
	second.Palettes = palettes

	p2, err := second.Prepare(ctx)
	require.NoError(t, err)
	assert.Equal(t, p1.Probe.Assignment, p2.Probe.Assignment)
	assert.Equal(t, p1.Probe.LoaderSuffix(), p2.Probe.LoaderSuffix())
}

func TestBuilder_BuildCancelled(t *testing.T) {
	b := newTestBuilder(t, testConfig(t))
	b.Store = asset.NewMemoryStore(map[string]string{"css/app.css": "a{color:red}"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx)
	assert.Error(t, err)

	css, err := b.Store.Text("css/app.css")
	require.NoError(t, err)
	assert.Equal(t, "a{color:red}", css)
}
