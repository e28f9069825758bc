package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/probe/probetest"
)

// project writes a variable file and a config next to it and returns the
// config path.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "styles", "colors.less"), "@blue-6: #1890ff;\n")
	writeFile(t, filepath.Join(dir, "styles", "vars.less"), `@import "./colors";
@primary-color: @blue-6;
@text-color: #333333;
@font-size-base: 14px;
`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist", "css"), 0o755))
	return writeFile(t, filepath.Join(dir, defaultConfigName), `theme_variables: ["@primary-color"]
theme_self_variables: ["@text-color"]
var_file: styles/vars.less
palette_db: .lesstheme/palettes.db
assets:
  dir: dist
log:
  level: error
`)
}

// run executes the CLI with the in-process compiler and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{newCompiler: func(*Config, *slog.Logger) (lessc.Compiler, error) {
		return &probetest.Compiler{}, nil
	}}
	root := newRootCmdFor(a)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lesstheme "+version+"\n", out)
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesstheme.yaml")

	out, err := run(t, "init", "-o", path, "--ui", "iview")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	v, err := newViper(path)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "iview", cfg.UI)

	_, err = run(t, "init", "-o", path)
	assert.Error(t, err)
}

func TestResolveCmd(t *testing.T) {
	cfg := project(t)

	out, err := run(t, "resolve", "-c", cfg, "--rejected")
	require.NoError(t, err)
	assert.Equal(t, `@blue-6: #1890ff;
@primary-color: #1890ff;
@text-color: #333333;
// @font-size-base: 14px (not-color)
`, out)
}

func TestResolveCmd_JSON(t *testing.T) {
	out, err := run(t, "resolve", "-c", project(t), "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"@primary-color": "#1890ff"`)
}

func TestResolveCmd_MissingConfig(t *testing.T) {
	_, err := run(t, "resolve", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

var suffixLine = regexp.MustCompile(`(?m)^(@[\w-]+): (#[0-9a-f]{6});$`)

func TestProbeCmd(t *testing.T) {
	cfg := project(t)
	output := filepath.Join(filepath.Dir(cfg), "theme.vars.less")

	_, err := run(t, "probe", "-c", cfg, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	// base, nine levels and the self variable
	assert.Len(t, suffixLine.FindAllStringSubmatch(string(data), -1), 11)
}

func TestBuildAndCompile(t *testing.T) {
	cfg := project(t)
	dir := filepath.Dir(cfg)

	suffix, err := run(t, "probe", "-c", cfg)
	require.NoError(t, err)

	colors := map[string]string{}
	for _, m := range suffixLine.FindAllStringSubmatch(suffix, -1) {
		colors[m[1]] = m[2]
	}
	require.Contains(t, colors, "@primary-color")
	require.Contains(t, colors, "@text-color")

	// what the app build produced against the probe colors
	appCSS := filepath.Join(dir, "dist", "css", "app.css")
	writeFile(t, appCSS, ".btn{color:"+colors["@primary-color"]+";padding:4px}\n.body{color:"+colors["@text-color"]+"}")

	bundlePath := filepath.Join(dir, "lesstheme.json")
	out, err := run(t, "build", "-c", cfg, "-o", bundlePath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+bundlePath)

	rewritten, err := os.ReadFile(appCSS)
	require.NoError(t, err)
	assert.Equal(t, ".btn{padding:4px}", strings.TrimSpace(string(rewritten)))

	bundle, err := readBundle(bundlePath)
	require.NoError(t, err)
	assert.Equal(t, ".btn{color:@primary-color}.body{color:@text-color}", bundle.Stylesheet)
	assert.Equal(t, "#1890ff", bundle.Palette["@primary-color"])
	assert.Equal(t, "#333333", bundle.Palette["@text-color"])

	css, err := run(t, "compile", "-c", cfg, "-b", bundlePath, "--set", "@primary-color=#f5222d", "--verify")
	require.NoError(t, err)
	assert.Contains(t, css, "color: #f5222d;")
	assert.Contains(t, css, "color: #333333;")
}

func TestBuildCmd_StylesheetAndMetadata(t *testing.T) {
	cfg := project(t)
	dir := filepath.Dir(cfg)

	suffix, err := run(t, "probe", "-c", cfg)
	require.NoError(t, err)
	var text string
	for _, m := range suffixLine.FindAllStringSubmatch(suffix, -1) {
		if m[1] == "@text-color" {
			text = m[2]
		}
	}
	require.NotEmpty(t, text)
	writeFile(t, filepath.Join(dir, "dist", "css", "app.css"), ".a{color:"+text+"}")

	sheetPath := filepath.Join(dir, "theme.less")
	metaPath := filepath.Join(dir, "theme.meta.json")
	_, err = run(t, "build", "-c", cfg, "-o", filepath.Join(dir, "lesstheme.json"),
		"--stylesheet", sheetPath, "--metadata", metaPath)
	require.NoError(t, err)

	sheet, err := os.ReadFile(sheetPath)
	require.NoError(t, err)
	assert.Equal(t, ".a{color:@text-color}", string(sheet))

	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.NotContains(t, meta, "stylesheet")
	assert.Contains(t, meta, "hash")
	assert.Equal(t, "#333333", meta["palette"].(map[string]any)["@text-color"])
}
