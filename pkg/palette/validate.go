package palette

import (
	"fmt"
	"regexp"
	"strings"
)

// GeneratorFunctions are preprocessor color functions whose calls are
// accepted as colors without evaluation.
var GeneratorFunctions = []string{
	"color", "lighten", "darken", "saturate", "desaturate", "fadein", "fadeout",
	"fade", "spin", "mix", "hsv", "tint", "shade", "greyscale", "multiply",
	"contrast", "screen", "overlay",
}

var (
	functionalColor = regexp.MustCompile(`(?i)^(rgb|hsl|hsv)a?\((\d+%?(deg|rad|grad|turn)?[,\s]+){2,3}[\s/]*[\d.]+%?\)$`)
	paletteCall     = regexp.MustCompile(`colorPalette|fade`)
	hexDigits       = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// keywords are non-named color literals accepted verbatim.
var keywords = map[string]bool{
	"transparent":  true,
	"currentcolor": true,
}

// Validator decides whether a resolved value is a color.
type Validator struct {
	patterns []*regexp.Regexp
}

// NewValidator returns a validator with the default generator-call
// patterns plus the caller's extra patterns.
func NewValidator(extra ...string) (*Validator, error) {
	v := &Validator{}
	for _, name := range GeneratorFunctions {
		v.patterns = append(v.patterns, regexp.MustCompile(regexp.QuoteMeta(name)+`\(.*\)`))
	}
	for _, p := range extra {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid color pattern %q: %w", p, err)
		}
		v.patterns = append(v.patterns, re)
	}
	return v, nil
}

// MustValidator is NewValidator for static pattern lists.
func MustValidator(extra ...string) *Validator {
	v, err := NewValidator(extra...)
	if err != nil {
		panic(err)
	}
	return v
}

// IsColor reports whether value looks like a color.
//
// The checks run in a fixed order: anything mentioning rgb passes, any
// pixel value fails, palette/fade calls pass, then hex literals,
// functional notation, keywords and finally the generator patterns.
func (v *Validator) IsColor(value string) bool {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "rgb") {
		return true
	}
	if value == "" || strings.Contains(value, "px") {
		return false
	}
	if paletteCall.MatchString(value) {
		return true
	}
	if strings.HasPrefix(value, "#") {
		return IsHex(value)
	}
	if functionalColor.MatchString(value) {
		return true
	}
	if keywords[strings.ToLower(value)] {
		return true
	}
	for _, re := range v.patterns {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// IsHex reports whether s is #rgb, #rgba, #rrggbb or #rrggbbaa.
func IsHex(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	digits := s[1:]
	switch len(digits) {
	case 3, 4, 6, 8:
		return hexDigits.MatchString(digits)
	}
	return false
}

// NamedColor returns the hex value of a CSS named color.
func NamedColor(name string) (string, bool) {
	hex, ok := namedColors[strings.ToLower(strings.TrimSpace(name))]
	return hex, ok
}
