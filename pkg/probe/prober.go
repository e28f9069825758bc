// Package probe discovers how the preprocessor computes every theme color
// by compiling a stylesheet of random sentinel colors and reading the
// output back.
package probe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/shade"
)

// DefaultCacheSize is the number of probe results kept by a Prober.
const DefaultCacheSize = 16

// Input is one probe pass.
type Input struct {
	// Specs are the symbolic colors to discover. Names must be unique.
	Specs []shade.Spec

	// Framework is the inlined UI framework color file. It is compiled
	// ahead of the sentinels so its own variables resolve.
	Framework string

	// SearchPaths resolve imports left in Framework.
	SearchPaths []string

	// Rand draws sentinels. Nil uses a randomly seeded source.
	Rand *rand.Rand

	// Reuse keeps sentinels from an earlier pass for names it contains.
	Reuse *Assignment
}

// Result is the authoritative mapping of one probe pass.
type Result struct {
	Specs      []shade.Spec
	Assignment Assignment

	// Mapping holds the compiled color of every recovered name.
	Mapping palette.Mapping

	// Missing lists names whose rule did not appear in the output.
	Missing []string

	// Collisions lists compiled colors shared by more than one name.
	Collisions map[string][]string

	// Key identifies the probe input.
	Key string
}

// Spec returns the spec of name.
func (r *Result) Spec(name string) (shade.Spec, bool) {
	for _, s := range r.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return shade.Spec{}, false
}

// LoaderSuffix returns the `@name: color;` lines appended to every LESS
// module of the application so it compiles against the sentinels.
func (r *Result) LoaderSuffix() string {
	lines := make([]string, 0, len(r.Mapping))
	for _, s := range r.Specs {
		if color, ok := r.Mapping[s.Name]; ok {
			lines = append(lines, s.Name+": "+color+";")
		}
	}
	return strings.Join(lines, "\n")
}

// Prober runs probe passes against a Compiler.
type Prober struct {
	Compiler lessc.Compiler
	Logger   *slog.Logger

	cache *lru.Cache[string, *Result]
}

// NewProber returns a prober that keeps the last cacheSize results. A
// cacheSize of 0 uses DefaultCacheSize.
func NewProber(compiler lessc.Compiler, cacheSize int, logger *slog.Logger) (*Prober, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe cache: %w", err)
	}
	return &Prober{Compiler: compiler, Logger: logger, cache: cache}, nil
}

// Key hashes everything a probe result depends on except the sentinels.
func Key(in Input) string {
	h := sha256.New()
	h.Write([]byte(in.Framework))
	h.Write([]byte{0})
	h.Write([]byte(Stylesheet(in.Specs)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(in.SearchPaths, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}

// Probe assigns sentinels to the base and self specs, compiles the probe
// stylesheet and inverts the output. Equal inputs return the cached result
// so sentinels stay stable across rebuilds. A compile failure is returned
// as is.
func (p *Prober) Probe(ctx context.Context, in Input) (*Result, error) {
	key := Key(in)
	if cached, ok := p.cache.Get(key); ok {
		p.Logger.Debug("probe cache hit", "key", key[:12])
		return cached, nil
	}

	if err := checkUnique(in.Specs); err != nil {
		return nil, err
	}

	var roots []string
	for _, s := range in.Specs {
		if !s.Derived() {
			roots = append(roots, s.Name)
		}
	}

	assignment, err := Assign(roots, in.Rand, in.Reuse)
	if err != nil {
		return nil, err
	}

	source := in.Framework + "\n" + Variables(assignment) + "\n" + Stylesheet(in.Specs)

	start := time.Now()
	css, err := p.Compiler.Compile(ctx, lessc.Request{Source: source, Paths: in.SearchPaths})
	if err != nil {
		return nil, fmt.Errorf("probe compile: %w", err)
	}

	compiled := Invert(css)
	result := &Result{
		Specs:      in.Specs,
		Assignment: assignment,
		Mapping:    make(palette.Mapping, len(in.Specs)),
		Key:        key,
	}

	owners := make(map[string][]string)
	for _, s := range in.Specs {
		color, ok := compiled[s.Name]
		if !ok {
			result.Missing = append(result.Missing, s.Name)
			continue
		}
		result.Mapping[s.Name] = color
		owners[strings.ToLower(color)] = append(owners[strings.ToLower(color)], s.Name)
	}

	for color, names := range owners {
		if len(names) > 1 {
			if result.Collisions == nil {
				result.Collisions = make(map[string][]string)
			}
			sort.Strings(names)
			result.Collisions[color] = names
		}
	}

	if len(result.Missing) > 0 {
		p.Logger.Warn("probe rules missing from compiled output", "names", result.Missing)
	}
	if len(result.Collisions) > 0 {
		p.Logger.Warn("probe produced shared colors", "count", len(result.Collisions))
	}
	p.Logger.Info("probe complete",
		"specs", len(in.Specs),
		"recovered", len(result.Mapping),
		"ms", time.Since(start).Milliseconds())

	p.cache.Add(key, result)
	return result, nil
}

// Forget drops every cached result.
func (p *Prober) Forget() {
	p.cache.Purge()
}

func checkUnique(specs []shade.Spec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return fmt.Errorf("duplicate probe name %s", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
