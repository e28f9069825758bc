package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, text string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(origDir)

	v, err := newViper("")
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"@primary-color"}, cfg.ThemeVariables)
	assert.Equal(t, "node_modules", cfg.NodeModules)
	assert.Equal(t, "dist", cfg.Assets.Dir)
	assert.Equal(t, "regex", cfg.Assets.Locator)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "lesstheme.yaml"), `theme_variables: ["@primary-color", "@success-color"]
theme_self_variables: ["@text-color"]
var_file: src/vars.less
ui: iview
derived_vars: ["darken(%var%, 10%)"]
assets:
  dir: build
  production: true
  locator: ast
palette_db: /var/lib/lesstheme.db
log:
  level: debug
`)

	v, err := newViper(path)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"@primary-color", "@success-color"}, cfg.ThemeVariables)
	assert.Equal(t, []string{"@text-color"}, cfg.ThemeSelfVariables)
	assert.Equal(t, filepath.Join(dir, "src", "vars.less"), cfg.VarFile, "relative to the config file")
	assert.Equal(t, filepath.Join(dir, "node_modules"), cfg.NodeModules)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.Assets.Dir)
	assert.Equal(t, "/var/lib/lesstheme.db", cfg.PaletteDB)
	assert.True(t, cfg.Assets.Production)
	assert.Equal(t, "ast", cfg.Assets.Locator)
	assert.Equal(t, "debug", cfg.Log.Level)

	tc := cfg.themeConfig()
	assert.Equal(t, "iview", tc.UI)
	assert.Equal(t, []string{"darken(%var%, 10%)"}, tc.DerivedVars)
	assert.Equal(t, cfg.NodeModules, tc.PackageRoot)
	assert.Equal(t, dir, cfg.projectDir())
}

func TestLoadConfig_Env(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "lesstheme.yaml"), "var_file: vars.less\n")
	t.Setenv("LESSTHEME_LOG_LEVEL", "warn")
	t.Setenv("LESSTHEME_ASSETS_MINIFIED", "true")

	v, err := newViper(path)
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Assets.Minified)
}

func TestLoadConfig_RelativeConfigPath(t *testing.T) {
	chdirTemp(t)
	writeFile(t, filepath.Join("site", "lesstheme.yaml"), "var_file: styles/vars.less\npalette_db: .lesstheme/p.db\n")

	v, err := newViper(filepath.Join("site", "lesstheme.yaml"))
	require.NoError(t, err)
	cfg, err := loadConfig(v)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.VarFile), cfg.VarFile)
	assert.True(t, strings.HasSuffix(cfg.VarFile, filepath.Join("site", "styles", "vars.less")), cfg.VarFile)
	assert.True(t, filepath.IsAbs(cfg.PaletteDB), cfg.PaletteDB)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown locator", "assets:\n  locator: dom\n"},
		{"variable without sigil", "theme_variables: [primary-color]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "lesstheme.yaml"), tt.yaml)
			v, err := newViper(path)
			require.NoError(t, err)
			_, err = loadConfig(v)
			assert.Error(t, err)
		})
	}
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := newViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWriteStarterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lesstheme.yaml")
	require.NoError(t, writeStarterConfig(path, starterConfig("antd"), false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, []string{"@primary-color"}, cfg.ThemeVariables)
	assert.Equal(t, "antd", cfg.UI)
	assert.Contains(t, cfg.UIColorFile, "antd")
	assert.Equal(t, "regex", cfg.Assets.Locator)

	err = writeStarterConfig(path, starterConfig(""), false)
	assert.Error(t, err, "existing file kept without force")
	assert.NoError(t, writeStarterConfig(path, starterConfig(""), true))
}
