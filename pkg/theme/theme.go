// Package theme turns classified build output into the symbolic stylesheet
// a runtime switcher recompiles against a user palette.
//
// The runtime contract: the stylesheet references theme variables by name
// and derived shades by their generator expression. A runtime compiles it
// with a Palette as global variables, applies the result, and persists the
// palette under StorageKey.
package theme

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gnana997/lesstheme/pkg/cssrule"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/probe"
)

// StorageKey is the key the runtime persists the chosen palette under.
const StorageKey = "theme_color"

// Palette maps theme variable names to the colors a user picked.
type Palette map[string]string

// Names returns the palette keys in sorted order.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns p with every entry of over applied on top.
func (p Palette) Merge(over Palette) Palette {
	out := make(Palette, len(p)+len(over))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// colorToken matches the color literals a compiled stylesheet can carry.
var colorToken = regexp.MustCompile(`#[0-9a-fA-F]{3,8}\b|(?i:rgba?|hsla?)\([^()]*\)`)

var leadingZero = regexp.MustCompile(`([(,])0\.`)

// normalizeColor gives equal colors equal keys regardless of case, hex
// shortening and spacing.
func normalizeColor(s string) string {
	if hex, ok := cssrule.NormalizeHex(s); ok {
		return hex
	}
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))
	return leadingZero.ReplaceAllString(s, "$1.")
}

// Substitute replaces every color the probe recovered with its symbolic
// form: theme variables by their name, derived shades by the expression
// that computes them. Colors the probe did not recover are left alone.
// When two names compiled to the same color the first spec wins.
//
// The returned palette holds the resolved default of every theme
// variable that has one.
func Substitute(css string, result *probe.Result, resolved palette.Mapping) (string, Palette) {
	table := make(map[string]string, len(result.Mapping))
	defaults := make(Palette)

	for _, s := range result.Specs {
		if !s.Derived() {
			if color, ok := resolved[s.Name]; ok {
				defaults[s.Name] = color
			}
		}

		compiled, ok := result.Mapping[s.Name]
		if !ok {
			continue
		}
		key := normalizeColor(compiled)
		if _, taken := table[key]; taken {
			continue
		}
		if s.Derived() {
			table[key] = s.Expression
		} else {
			table[key] = s.Name
		}
	}

	out := colorToken.ReplaceAllStringFunc(css, func(tok string) string {
		if symbol, ok := table[normalizeColor(tok)]; ok {
			return symbol
		}
		return tok
	})
	return out, defaults
}
