package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gnana997/lesstheme/pkg/theme"
)

// defaultConfigName is looked up in the working directory when --config
// is not given.
const defaultConfigName = "lesstheme.yaml"

// Config is the contents of lesstheme.yaml. Every key can be overridden
// with a LESSTHEME_ environment variable, dots becoming underscores.
type Config struct {
	ThemeVariables      []string `mapstructure:"theme_variables" yaml:"theme_variables"`
	ThemeSelfVariables  []string `mapstructure:"theme_self_variables" yaml:"theme_self_variables,omitempty"`
	VarFile             string   `mapstructure:"var_file" yaml:"var_file"`
	UI                  string   `mapstructure:"ui" yaml:"ui,omitempty"`
	UIColorFile         string   `mapstructure:"ui_color_file" yaml:"ui_color_file,omitempty"`
	NodeModules         string   `mapstructure:"node_modules" yaml:"node_modules"`
	DerivedVars         []string `mapstructure:"derived_vars" yaml:"derived_vars,omitempty"`
	CustomColorPatterns []string `mapstructure:"custom_color_patterns" yaml:"custom_color_patterns,omitempty"`

	Assets AssetsConfig `mapstructure:"assets" yaml:"assets"`

	// Runtime is the node or bun binary. Empty searches PATH.
	Runtime string `mapstructure:"runtime" yaml:"runtime,omitempty"`

	// PaletteDB keeps sentinels and default palettes between runs.
	PaletteDB string `mapstructure:"palette_db" yaml:"palette_db,omitempty"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// MCPLog is the JSONL tool-call log of `serve`. Empty disables it.
	MCPLog string `mapstructure:"mcp_log" yaml:"mcp_log,omitempty"`
}

// AssetsConfig selects the build output the pipeline rewrites.
type AssetsConfig struct {
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	Include []string `mapstructure:"include" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	// Production admits only css/*.css artifacts.
	Production bool `mapstructure:"production" yaml:"production"`

	// Minified switches the regex locator to minified bundles.
	Minified bool `mapstructure:"minified" yaml:"minified"`

	// Locator is "regex" or "ast".
	Locator string `mapstructure:"locator" yaml:"locator"`

	Workers int `mapstructure:"workers" yaml:"workers,omitempty"`
}

// LogConfig configures the stderr logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("theme_variables", []string{"@primary-color"})
	v.SetDefault("theme_self_variables", []string{})
	v.SetDefault("var_file", "")
	v.SetDefault("ui", "")
	v.SetDefault("ui_color_file", "")
	v.SetDefault("node_modules", "node_modules")
	v.SetDefault("derived_vars", []string{})
	v.SetDefault("custom_color_patterns", []string{})
	v.SetDefault("assets.dir", "dist")
	v.SetDefault("assets.include", []string{})
	v.SetDefault("assets.exclude", []string{})
	v.SetDefault("assets.production", false)
	v.SetDefault("assets.minified", false)
	v.SetDefault("assets.locator", "regex")
	v.SetDefault("assets.workers", 0)
	v.SetDefault("runtime", "")
	v.SetDefault("palette_db", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("mcp_log", "")
}

// newViper reads configFile, or lesstheme.yaml from the working directory
// when configFile is empty. Only an explicitly named file must exist.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(defaultConfigName, filepath.Ext(defaultConfigName)))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LESSTHEME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// loadConfig decodes v and checks the values no command can run without.
func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Relative paths are relative to the config file.
	if used := v.ConfigFileUsed(); used != "" {
		base, err := filepath.Abs(filepath.Dir(used))
		if err != nil {
			return nil, err
		}
		for _, p := range []*string{&cfg.VarFile, &cfg.UIColorFile, &cfg.NodeModules, &cfg.Assets.Dir, &cfg.PaletteDB, &cfg.MCPLog} {
			if *p != "" && !filepath.IsAbs(*p) {
				*p = filepath.Join(base, *p)
			}
		}
	}

	switch cfg.Assets.Locator {
	case "", "regex", "ast":
	default:
		return nil, fmt.Errorf("unknown locator %q (want regex or ast)", cfg.Assets.Locator)
	}
	for _, name := range append(append([]string{}, cfg.ThemeVariables...), cfg.ThemeSelfVariables...) {
		if !strings.HasPrefix(name, "@") {
			return nil, fmt.Errorf("theme variable %q must start with @", name)
		}
	}
	return &cfg, nil
}

// themeConfig is the builder view of cfg.
func (c *Config) themeConfig() theme.Config {
	return theme.Config{
		ThemeVariables:      c.ThemeVariables,
		SelfVariables:       c.ThemeSelfVariables,
		VarFile:             c.VarFile,
		UI:                  c.UI,
		UIColorFile:         c.UIColorFile,
		PackageRoot:         c.NodeModules,
		DerivedVars:         c.DerivedVars,
		CustomColorPatterns: c.CustomColorPatterns,
	}
}

// projectDir is where the preprocessor worker runs, so `less` resolves
// from node_modules.
func (c *Config) projectDir() string {
	if c.NodeModules == "" {
		return "."
	}
	return filepath.Dir(c.NodeModules)
}

// starterConfig is what `lesstheme init` writes.
func starterConfig(ui string) Config {
	cfg := Config{
		ThemeVariables: []string{"@primary-color"},
		VarFile:        "src/styles/variables.less",
		UI:             ui,
		NodeModules:    "node_modules",
		Assets: AssetsConfig{
			Dir:     "dist",
			Locator: "regex",
		},
		PaletteDB: ".lesstheme/palettes.db",
		Log:       LogConfig{Level: "info", Format: "text"},
	}
	switch strings.ToLower(ui) {
	case "antd", "ant-design":
		cfg.UIColorFile = "node_modules/antd/lib/style/color/colors.less"
	case "iview", "view-design":
		cfg.UIColorFile = "node_modules/view-design/src/styles/color/colors.less"
	}
	return cfg
}

// writeStarterConfig writes cfg to path. An existing file is kept unless
// force is set.
func writeStarterConfig(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
