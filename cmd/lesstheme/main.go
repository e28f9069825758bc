package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/lesstheme/pkg/asset"
	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/parser"
	"github.com/gnana997/lesstheme/pkg/parser/queries"
	"github.com/gnana997/lesstheme/pkg/theme"
	"github.com/gnana997/lesstheme/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every command once the config is loaded.
type app struct {
	configFile string
	cfg        *Config
	logger     *slog.Logger

	// newCompiler is replaced in tests.
	newCompiler func(cfg *Config, logger *slog.Logger) (lessc.Compiler, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{newCompiler: workerCompiler})
}

func newRootCmdFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lesstheme",
		Short: "Runtime theme switching for LESS applications",
		Long: `lesstheme strips the theme colors out of a built LESS application and
emits a symbolic stylesheet the browser recompiles with a new palette.

A build takes two passes: "lesstheme probe" writes the variable lines the
app's LESS loader appends to every module, the app is built, then
"lesstheme build" rewrites the output and writes the theme bundle.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file (default ./"+defaultConfigName+")")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")

	root.AddCommand(
		newInitCmd(),
		newResolveCmd(a),
		newProbeCmd(a),
		newBuildCmd(a),
		newCompileCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newSetupCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the config and builds the logger.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	v, err := newViper(a.configFile)
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("log.format", flags.Lookup("log-format")); err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(cfg.Log.Level),
		Format: util.LogFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
	if used := v.ConfigFileUsed(); used != "" {
		a.logger.Debug("config loaded", "file", used)
	}
	return nil
}

// workerCompiler runs the preprocessor with node or bun.
func workerCompiler(cfg *Config, logger *slog.Logger) (lessc.Compiler, error) {
	runtime := cfg.Runtime
	if runtime == "" {
		rt, ok := lessc.FindRuntime()
		if !ok {
			return nil, errors.New("no JavaScript runtime found on PATH; install node or set runtime")
		}
		runtime = rt
	}
	return lessc.NewWorker(runtime, cfg.projectDir(), logger), nil
}

// session owns the resources one command run opens.
type session struct {
	builder  *theme.Builder
	cache    util.FileCache
	palettes *theme.PaletteStore
	parsers  *parser.ParserManager
	queries  *queries.QueryManager
}

type sessionOptions struct {
	compiler bool
	assets   bool
}

func (a *app) openSession(opts sessionOptions) (*session, error) {
	s := &session{cache: util.NewFileCache(&util.FileCacheConfig{
		MaxFiles: util.DefaultFileCacheConfig().MaxFiles,
		Logger:   a.logger,
	})}
	if err := a.initSession(s, opts); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (a *app) initSession(s *session, opts sessionOptions) error {
	var (
		compiler lessc.Compiler
		store    asset.Store
		err      error
	)
	if opts.compiler {
		if compiler, err = a.newCompiler(a.cfg, a.logger); err != nil {
			return err
		}
	}
	if opts.assets {
		if store, err = asset.NewDirStore(a.cfg.Assets.Dir, a.cfg.Assets.Include, a.cfg.Assets.Exclude, s.cache, a.logger); err != nil {
			return err
		}
	}

	if s.builder, err = theme.NewBuilder(a.cfg.themeConfig(), compiler, store, s.cache, a.logger); err != nil {
		return err
	}
	s.builder.Workers = a.cfg.Assets.Workers
	s.builder.Filter = asset.DefaultFilter(!a.cfg.Assets.Production)
	s.builder.Locator = a.locator(s)

	if a.cfg.PaletteDB != "" {
		if s.palettes, err = theme.OpenPaletteStore(a.cfg.PaletteDB); err != nil {
			return err
		}
		s.builder.Palettes = s.palettes
	}
	return nil
}

func (a *app) locator(s *session) asset.Locator {
	switch {
	case a.cfg.Assets.Locator == "ast":
		s.parsers = parser.NewParserManager(a.logger)
		s.queries = queries.NewQueryManager(s.parsers, a.logger)
		return asset.NewASTLocator(s.parsers, s.queries)
	case a.cfg.Assets.Minified:
		return asset.MinifiedLocator()
	default:
		return asset.DevLocator()
	}
}

// Close releases everything the session opened.
func (s *session) Close() error {
	var errs []error
	if s.palettes != nil {
		errs = append(errs, s.palettes.Close())
	}
	if s.queries != nil {
		errs = append(errs, s.queries.Close())
	}
	if s.parsers != nil {
		errs = append(errs, s.parsers.Close())
	}
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	return errors.Join(errs...)
}

// writeOutput writes text to path, or to the command's stdout when path
// is empty.
func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
