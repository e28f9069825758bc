package asset

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gnana997/lesstheme/pkg/cssrule"
)

// Kind is how an artifact carries its stylesheet.
type Kind int

const (
	// KindOther carries no stylesheet.
	KindOther Kind = iota
	// KindStylesheet is CSS text.
	KindStylesheet
	// KindScript embeds escaped fragments.
	KindScript
	// KindHotUpdate is a hot-update script. It is reduced but never
	// extracted.
	KindHotUpdate
)

func (k Kind) String() string {
	switch k {
	case KindStylesheet:
		return "stylesheet"
	case KindScript:
		return "script"
	case KindHotUpdate:
		return "hot-update"
	default:
		return "other"
	}
}

var (
	hotUpdateName  = regexp.MustCompile(`\.hot-update\.js$`)
	stylesheetName = regexp.MustCompile(`\.css$`)
	scriptName     = regexp.MustCompile(`\.(js|mjs|cjs)$`)
)

// KindOf classifies an artifact by name.
func KindOf(name string) Kind {
	switch {
	case hotUpdateName.MatchString(name):
		return KindHotUpdate
	case stylesheetName.MatchString(name):
		return KindStylesheet
	case scriptName.MatchString(name):
		return KindScript
	default:
		return KindOther
	}
}

// Artifact is the per-build state of one artifact.
type Artifact struct {
	Name string
	Kind Kind

	// Source is the artifact text when it was loaded.
	Source string

	// Spans locate the fragments in Source. Nil for stylesheets.
	Spans []Span

	// CSS is the stylesheet text: Source for stylesheets, the unescaped
	// fragments joined with SplitTag for scripts.
	CSS string

	mu        sync.Mutex
	extracted *string
	reduced   *string
	replaced  bool
}

// Fragments returns the number of located fragments.
func (a *Artifact) Fragments() int {
	return len(a.Spans)
}

// Replaced reports whether the artifact has been rewritten.
func (a *Artifact) Replaced() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replaced
}

// Pipeline extracts, classifies and reinjects the stylesheets of one
// build's artifacts. Memos live in the Pipeline, so separate builds never
// share state.
type Pipeline struct {
	Store   Store
	Locator Locator
	Filter  Filter

	// Workers bounds Classify's parallelism. Zero picks the CPU default.
	Workers int

	Logger *slog.Logger

	mu        sync.Mutex
	artifacts map[string]*Artifact
}

// NewPipeline returns a pipeline over store. A nil locator uses
// DevLocator and a nil filter admits every artifact.
func NewPipeline(store Store, locator Locator, filter Filter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if locator == nil {
		locator = DevLocator()
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Pipeline{
		Store:     store,
		Locator:   locator,
		Filter:    filter,
		Logger:    logger,
		artifacts: make(map[string]*Artifact),
	}
}

// Names returns the artifacts the pipeline inspects.
func (p *Pipeline) Names() []string {
	var names []string
	for _, name := range p.Store.Names() {
		if p.Filter(name) {
			names = append(names, name)
		}
	}
	return names
}

// Load reads an artifact and locates its fragments. Repeated calls return
// the same Artifact.
func (p *Pipeline) Load(name string) (*Artifact, error) {
	p.mu.Lock()
	a, ok := p.artifacts[name]
	p.mu.Unlock()
	if ok {
		return a, nil
	}

	text, err := p.Store.Text(name)
	if err != nil {
		return nil, err
	}

	a = &Artifact{Name: name, Kind: KindOf(name), Source: text}
	switch a.Kind {
	case KindStylesheet:
		a.CSS = text
	case KindScript, KindHotUpdate:
		spans, err := p.Locator.Locate(text)
		if err != nil {
			return nil, fmt.Errorf("failed to locate fragments in %s: %w", name, err)
		}
		a.Spans = spans
		fragments := make([]string, len(spans))
		for i, s := range spans {
			fragments[i] = Unescape(text[s.Start:s.End])
		}
		if len(fragments) > 0 {
			a.CSS = Join(fragments)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.artifacts[name]; ok {
		return existing, nil
	}
	p.artifacts[name] = a
	return a, nil
}

// Extract returns the color-bearing CSS of a. Hot-update artifacts
// extract to nothing. The result is computed once per artifact.
func (p *Pipeline) Extract(a *Artifact) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.extracted != nil {
		return *a.extracted, nil
	}

	var out string
	if a.Kind != KindHotUpdate && a.CSS != "" {
		css, err := cssrule.ExtractCSS(a.CSS)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", a.Name, err)
		}
		out = css
	}
	a.extracted = &out
	return out, nil
}

// Reduce returns the color-stripped CSS of a, SplitTag separators kept.
// The result is computed once per artifact.
func (p *Pipeline) Reduce(a *Artifact) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reduced != nil {
		return *a.reduced, nil
	}

	var out string
	if a.CSS != "" {
		css, err := cssrule.ReduceCSS(a.CSS)
		if err != nil {
			return "", fmt.Errorf("failed to reduce %s: %w", a.Name, err)
		}
		out = css
	}
	a.reduced = &out
	return out, nil
}

// Reinject writes the reduced CSS back into the artifact. Stylesheets are
// replaced whole; scripts get piece i of the reduced text, re-escaped, in
// place of fragment i, every other byte untouched. It reports whether the
// store was written. An artifact is rewritten at most once per Pipeline,
// and scripts without fragments are never rewritten.
func (p *Pipeline) Reinject(a *Artifact) (bool, error) {
	reduced, err := p.Reduce(a)
	if err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.replaced {
		return false, nil
	}

	var text string
	switch a.Kind {
	case KindStylesheet:
		text = reduced
	case KindScript, KindHotUpdate:
		if len(a.Spans) == 0 {
			a.replaced = true
			return false, nil
		}
		text, err = splice(a.Source, a.Spans, Split(reduced))
		if err != nil {
			return false, fmt.Errorf("failed to re-escape %s: %w", a.Name, err)
		}
	default:
		a.replaced = true
		return false, nil
	}

	if err := p.Store.Replace(a.Name, text); err != nil {
		return false, err
	}
	a.replaced = true
	return true, nil
}

// splice replaces span i of source with the escaped piece i. Missing
// pieces become empty fragments.
func splice(source string, spans []Span, pieces []string) (string, error) {
	var b strings.Builder
	b.Grow(len(source))

	last := 0
	for i, s := range spans {
		piece := ""
		if i < len(pieces) {
			piece = pieces[i]
		}
		escaped, err := Escape(piece)
		if err != nil {
			return "", err
		}
		b.WriteString(source[last:s.Start])
		b.WriteString(escaped)
		last = s.End
	}
	b.WriteString(source[last:])
	return b.String(), nil
}

// Classification is the outcome of classifying every inspected artifact.
type Classification struct {
	// Artifacts are sorted by name.
	Artifacts []*Artifact

	// CSS is the color-bearing CSS of all artifacts, in artifact order.
	CSS string
}

// Classify loads, extracts and reduces every inspected artifact on a
// worker pool. It writes nothing.
func (p *Pipeline) Classify(ctx context.Context) (*Classification, error) {
	start := time.Now()
	names := p.Names()

	process := func(ctx context.Context, name string) (*Artifact, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := p.Load(name)
		if err != nil {
			return nil, err
		}
		if _, err := p.Extract(a); err != nil {
			return nil, err
		}
		if _, err := p.Reduce(a); err != nil {
			return nil, err
		}
		return a, nil
	}

	pool := NewWorkerPool(ctx, p.Workers, process, p.Logger)
	pool.Start()
	defer pool.Stop()

	go func() {
		defer pool.FinishSubmitting()
		for i, name := range names {
			if err := pool.Submit(ArtifactJob{Name: name, JobID: i}); err != nil {
				return
			}
		}
	}()

	artifacts := make([]*Artifact, len(names))
	var errs []string
	for received := 0; received < len(names); received++ {
		select {
		case r := <-pool.Results():
			artifacts[r.JobID] = r.Artifact
		case e := <-pool.Errors():
			errs = append(errs, fmt.Sprintf("%s: %v", e.Name, e.Error))
		case <-pool.Done():
			return nil, fmt.Errorf("classification cancelled: %w", ctx.Err())
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, fmt.Errorf("failed to classify %d artifacts: %s", len(errs), strings.Join(errs, "; "))
	}

	var parts []string
	for _, a := range artifacts {
		css, _ := p.Extract(a)
		if css = strings.TrimSpace(css); css != "" {
			parts = append(parts, css)
		}
	}

	stats := pool.GetStats()
	p.Logger.Info("artifacts classified",
		"artifacts", len(names),
		"workers", stats.NumWorkers,
		"ms", time.Since(start).Milliseconds())

	return &Classification{Artifacts: artifacts, CSS: strings.Join(parts, "\n")}, nil
}

// ReinjectAll rewrites every classified artifact and returns how many
// were written.
func (p *Pipeline) ReinjectAll(ctx context.Context, c *Classification) (int, error) {
	written := 0
	for _, a := range c.Artifacts {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ok, err := p.Reinject(a)
		if err != nil {
			return written, err
		}
		if ok {
			written++
			p.Logger.Debug("artifact rewritten", "artifact", a.Name, "kind", a.Kind.String(), "fragments", a.Fragments())
		}
	}
	return written, nil
}

// Run classifies and reinjects every inspected artifact and returns the
// color-bearing CSS.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	c, err := p.Classify(ctx)
	if err != nil {
		return "", err
	}
	if _, err := p.ReinjectAll(ctx, c); err != nil {
		return "", err
	}
	return c.CSS, nil
}
