// Package shade names the colors a preprocessor derives from a theme
// variable and the expressions that compute them.
package shade

import (
	"fmt"
	"strconv"
	"strings"
)

// Levels are the numbered palette steps generated for every theme
// variable. Step 6 is the base color itself and is never generated.
var Levels = []int{1, 2, 3, 4, 5, 7, 8, 9, 10}

// PrimaryColor is the one variable whose levels are named primary-<n>
// instead of primary-color-<n>.
const PrimaryColor = "@primary-color"

// DerivedTag is replaced by the base variable name in template expressions.
const DerivedTag = "%var%"

// ViewDesignTemplates are the derived colors view-design (iview) computes
// from each theme color on top of the numbered levels.
var ViewDesignTemplates = []string{
	"tint(" + DerivedTag + ", 20%)",
	"shade(" + DerivedTag + ", 5%)",
	"fade(" + DerivedTag + ", 20%)",
	"tint(" + DerivedTag + ", 90%)",
}

// FrameworkTemplates returns the built-in templates for a UI framework.
func FrameworkTemplates(ui string) []string {
	switch strings.ToLower(ui) {
	case "iview", "view-design":
		return ViewDesignTemplates
	}
	return nil
}

// Kind classifies a Spec.
type Kind int

const (
	// KindBase is a theme variable that also gets derived shades.
	KindBase Kind = iota
	// KindSelf is a theme variable without derived shades.
	KindSelf
	// KindLevel is a numbered colorPalette step.
	KindLevel
	// KindTemplate is a user or framework template derivation.
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindSelf:
		return "self"
	case KindLevel:
		return "level"
	case KindTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// Spec describes one symbolic color and how the preprocessor computes it.
type Spec struct {
	// Base is the theme variable the color derives from.
	Base string

	// Name is the unique symbolic name, e.g. "@primary-3".
	Name string

	// Key is "" for base colors, the level number, or "derived-<i>".
	Key string

	// Expression is what the preprocessor evaluates. For base and self
	// colors it is the variable itself.
	Expression string

	Kind Kind
}

// Derived reports whether the spec is computed from another variable.
func (s Spec) Derived() bool {
	return s.Kind == KindLevel || s.Kind == KindTemplate
}

// Generator produces Specs for theme variables.
type Generator struct {
	Templates []string
}

// NewGenerator returns a generator with the framework templates for ui
// followed by the caller's templates.
func NewGenerator(ui string, templates ...string) *Generator {
	all := append([]string{}, FrameworkTemplates(ui)...)
	all = append(all, templates...)
	return &Generator{Templates: all}
}

// For returns the base spec followed by every derived spec of base.
func (g *Generator) For(base string) []Spec {
	specs := []Spec{{Base: base, Name: base, Expression: base, Kind: KindBase}}

	for _, n := range Levels {
		name := LevelName(base, n)
		specs = append(specs, Spec{
			Base:       base,
			Name:       name,
			Key:        strconv.Itoa(n),
			Expression: paletteExpression(base, n),
			Kind:       KindLevel,
		})
	}

	for i, tmpl := range g.Templates {
		specs = append(specs, Spec{
			Base:       base,
			Name:       fmt.Sprintf("%s-derived-%d", base, i),
			Key:        fmt.Sprintf("derived-%d", i),
			Expression: strings.ReplaceAll(tmpl, DerivedTag, base),
			Kind:       KindTemplate,
		})
	}

	return specs
}

// Self returns the spec of a variable that gets no derived shades.
func Self(name string) Spec {
	return Spec{Base: name, Name: name, Expression: name, Kind: KindSelf}
}

// Expand returns specs for every theme variable followed by every self
// variable. Names are unique as long as the inputs are.
func (g *Generator) Expand(themeVars, selfVars []string) []Spec {
	var specs []Spec
	for _, v := range themeVars {
		specs = append(specs, g.For(v)...)
	}
	for _, v := range selfVars {
		specs = append(specs, Self(v))
	}
	return specs
}

// LevelName returns the symbolic name of level n of base.
func LevelName(base string, n int) string {
	if base == PrimaryColor {
		return fmt.Sprintf("@primary-%d", n)
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// paletteExpression is the colorPalette call for level n of base.
func paletteExpression(base string, n int) string {
	return fmt.Sprintf("color(~`colorPalette(\"@{%s}\", %d)`)", strings.TrimPrefix(base, "@"), n)
}
