package theme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/lesstheme/pkg/asset"
	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/probe"
	"github.com/gnana997/lesstheme/pkg/shade"
)

// Config describes one themed application.
type Config struct {
	// ThemeVariables get derived shades. SelfVariables do not.
	ThemeVariables []string
	SelfVariables  []string

	// VarFile defines the theme variables. Its imports are inlined.
	VarFile string

	// UI selects built-in derived templates ("iview", "view-design").
	UI string

	// UIColorFile is the framework file defining the color functions.
	UIColorFile string

	// PackageRoot resolves `~` imports, usually node_modules.
	PackageRoot string

	// DerivedVars are extra templates; %var% is replaced by the variable.
	DerivedVars []string

	// CustomColorPatterns are extra regular expressions accepted as
	// colors by the resolver.
	CustomColorPatterns []string
}

// Prepared is the result of resolving and probing the theme variables.
type Prepared struct {
	// VarText is the inlined variable file.
	VarText string

	// Framework is the inlined UI color file.
	Framework string

	// Files lists every stylesheet read, variable file first.
	Files []string

	Resolution *palette.Resolution
	Specs      []shade.Spec
	Probe      *probe.Result
}

// Builder runs theme builds for one application. Probe results are cached
// across builds, so sentinels stay stable while the inputs do.
type Builder struct {
	Config   Config
	Compiler lessc.Compiler
	Store    asset.Store

	// Locator and Filter configure the asset pipeline. Nil picks the
	// development defaults.
	Locator asset.Locator
	Filter  asset.Filter

	// Workers bounds artifact classification. Zero picks the CPU default.
	Workers int

	// Palettes persists sentinels and default palettes when set.
	Palettes *PaletteStore

	Logger *slog.Logger

	resolver *palette.Resolver
	inliner  *palette.Inliner
	prober   *probe.Prober

	mu   sync.Mutex
	last *Bundle
}

// NewBuilder validates cfg and returns a builder. reader serves stylesheet
// reads and may be nil.
func NewBuilder(cfg Config, compiler lessc.Compiler, store asset.Store, reader palette.SourceReader, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.ThemeVariables) == 0 && len(cfg.SelfVariables) == 0 {
		return nil, fmt.Errorf("no theme variables configured")
	}

	validator, err := palette.NewValidator(cfg.CustomColorPatterns...)
	if err != nil {
		return nil, err
	}
	prober, err := probe.NewProber(compiler, probe.DefaultCacheSize, logger)
	if err != nil {
		return nil, err
	}

	return &Builder{
		Config:   cfg,
		Compiler: compiler,
		Store:    store,
		Filter:   asset.DevFilter(),
		Logger:   logger,
		resolver: palette.NewResolver(validator, logger),
		inliner:  palette.NewInliner(reader, cfg.PackageRoot, logger),
		prober:   prober,
	}, nil
}

// SearchPaths are handed to the preprocessor for imports left in the
// framework text.
func (b *Builder) SearchPaths() []string {
	var paths []string
	if b.Config.UIColorFile != "" {
		paths = append(paths, filepath.Dir(b.Config.UIColorFile))
	}
	if b.Config.PackageRoot != "" {
		paths = append(paths, b.Config.PackageRoot)
	}
	return paths
}

// Inline reads the variable file and the UI color file with their imports
// inlined. A missing file fails the whole pass.
func (b *Builder) Inline() (varText, framework string, files []string, err error) {
	if b.Config.VarFile != "" {
		text, read, err := b.inliner.Inline(b.Config.VarFile)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to read variable file: %w", err)
		}
		varText = text
		files = append(files, read...)
	}
	if b.Config.UIColorFile != "" {
		text, read, err := b.inliner.Inline(b.Config.UIColorFile)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to read UI color file: %w", err)
		}
		framework = text
		files = append(files, read...)
	}
	return varText, framework, files, nil
}

// Resolve inlines and resolves the variable files without compiling
// anything.
func (b *Builder) Resolve() (*palette.Resolution, error) {
	varText, framework, _, err := b.Inline()
	if err != nil {
		return nil, err
	}
	return b.resolver.Resolve(framework + "\n" + varText), nil
}

// Prepare resolves the variable file and probes every theme color.
func (b *Builder) Prepare(ctx context.Context) (*Prepared, error) {
	varText, framework, files, err := b.Inline()
	if err != nil {
		return nil, err
	}
	return b.PrepareText(ctx, varText, framework, files)
}

// PrepareText is Prepare over already inlined text.
func (b *Builder) PrepareText(ctx context.Context, varText, framework string, files []string) (*Prepared, error) {
	resolution := b.resolver.Resolve(framework + "\n" + varText)
	themeVars := b.resolved(resolution, b.Config.ThemeVariables)
	selfVars := b.resolved(resolution, b.Config.SelfVariables)
	if len(themeVars) == 0 && len(selfVars) == 0 {
		return nil, errors.New("no theme variable resolves to a color")
	}

	specs := shade.NewGenerator(b.Config.UI, b.Config.DerivedVars...).
		Expand(themeVars, selfVars)

	in := probe.Input{
		Specs:       specs,
		Framework:   framework,
		SearchPaths: b.SearchPaths(),
	}

	if b.Palettes != nil {
		reuse, ok, err := b.Palettes.LoadAssignment(ctx, probe.Key(in))
		if err != nil {
			return nil, err
		}
		if ok {
			in.Reuse = reuse
		}
	}

	result, err := b.prober.Probe(ctx, in)
	if err != nil {
		return nil, err
	}

	if b.Palettes != nil {
		if err := b.Palettes.SaveAssignment(ctx, result.Key, result.Assignment); err != nil {
			return nil, err
		}
	}

	return &Prepared{
		VarText:    varText,
		Framework:  framework,
		Files:      files,
		Resolution: resolution,
		Specs:      specs,
		Probe:      result,
	}, nil
}

// resolved keeps the names with a color in resolution. The rest are
// logged and left out of probing.
func (b *Builder) resolved(resolution *palette.Resolution, names []string) []string {
	var out []string
	for _, name := range names {
		if !resolution.Mapping.Has(name) {
			b.Logger.Warn("theme variable has no resolved color, skipping", "name", name)
			continue
		}
		out = append(out, name)
	}
	return out
}

// LoaderSuffix returns the variable lines appended to every LESS module
// of the application so its output carries the probe colors.
func (b *Builder) LoaderSuffix(ctx context.Context) (string, error) {
	p, err := b.Prepare(ctx)
	if err != nil {
		return "", err
	}
	return p.Probe.LoaderSuffix(), nil
}

// Build probes the theme colors while classifying the artifacts, then
// strips the theme colors from the artifacts and returns the symbolic
// stylesheet. When the stylesheet changed since the previous Build the
// first hot-update artifact gets a patch that reloads it.
func (b *Builder) Build(ctx context.Context) (*Bundle, error) {
	start := time.Now()

	pipeline := asset.NewPipeline(b.Store, b.Locator, b.Filter, b.Logger)
	pipeline.Workers = b.Workers

	var (
		prepared   *Prepared
		classified *asset.Classification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := b.Prepare(gctx)
		prepared = p
		return err
	})
	g.Go(func() error {
		c, err := pipeline.Classify(gctx)
		classified = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Reinjection waits for the probe.
	written, err := pipeline.ReinjectAll(ctx, classified)
	if err != nil {
		return nil, err
	}

	symbolic, defaults := Substitute(classified.CSS, prepared.Probe, prepared.Resolution.Mapping)
	bundle := NewBundle(Minify(symbolic), defaults, prepared.Probe)

	b.mu.Lock()
	prev := b.last
	b.last = bundle
	b.mu.Unlock()

	if bundle.Changed(prev) {
		name, err := PatchHotUpdate(b.Store, bundle)
		if err != nil {
			return nil, err
		}
		if name != "" {
			b.Logger.Info("hot update patched", "artifact", name, "hash", bundle.Hash[:12])
		}
	}

	if b.Palettes != nil {
		if err := b.Palettes.Save(ctx, DefaultPaletteKey, defaults); err != nil {
			return nil, err
		}
	}

	b.Logger.Info("theme build complete",
		"artifacts", len(classified.Artifacts),
		"rewritten", written,
		"names", len(prepared.Probe.Mapping),
		"missing", len(prepared.Probe.Missing),
		"ms", time.Since(start).Milliseconds())

	return bundle, nil
}

// Last returns the bundle of the previous Build.
func (b *Builder) Last() *Bundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Forget drops cached probe results, forcing new sentinels unless the
// palette store holds the old ones.
func (b *Builder) Forget() {
	b.prober.Forget()
}
