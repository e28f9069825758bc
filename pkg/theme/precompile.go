package theme

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/probe"
	"github.com/gnana997/lesstheme/pkg/shade"
)

// Precompiler renders a bundle ahead of time for a fixed palette, the
// build-time alternative to compiling in the browser.
type Precompiler struct {
	Compiler lessc.Compiler

	// Framework is prepended so generator expressions resolve.
	Framework   string
	SearchPaths []string
}

// Compile renders b with p applied over the bundle defaults. The palette
// overrides any definition in Framework. The output
// carries one probe rule per theme variable so RederivePalette can read
// the palette back from it.
func (pc *Precompiler) Compile(ctx context.Context, b *Bundle, p Palette) (string, error) {
	vars := b.Palette.Merge(p)

	modify := make(map[string]string, len(vars))
	for name, color := range vars {
		modify[strings.TrimPrefix(name, "@")] = color
	}

	specs := make([]shade.Spec, 0, len(b.Bases))
	for _, name := range b.Bases {
		specs = append(specs, shade.Self(name))
	}

	source := pc.Framework + "\n" + b.Stylesheet + "\n" + probe.Stylesheet(specs)
	css, err := pc.Compiler.Compile(ctx, lessc.Request{
		Source:     source,
		Paths:      pc.SearchPaths,
		ModifyVars: modify,
	})
	if err != nil {
		return "", fmt.Errorf("precompile: %w", err)
	}
	return css, nil
}

// RederivePalette reads the palette back from compiled CSS that carries
// the probe rules of b. Names the CSS does not mention are left out.
func RederivePalette(css string, b *Bundle) Palette {
	compiled := probe.Invert(css)

	bases := make(map[string]bool, len(b.Bases))
	for _, name := range b.Bases {
		bases[name] = true
	}

	out := make(Palette)
	for class, name := range b.Classes {
		if !bases[name] {
			continue
		}
		if got, ok := probe.NameOf(class); !ok || got != name {
			continue
		}
		if color, ok := compiled[name]; ok {
			out[name] = color
		}
	}
	return out
}
