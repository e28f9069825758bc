package cssrule

import (
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gnana997/lesstheme/pkg/palette"
)

var (
	colorFunction = regexp.MustCompile(`(?i)^(rgba?|hsla?)\(.*\)$`)
	embeddedColor = regexp.MustCompile(`(?i)(#[0-9a-f]{3,8}\b|\b(rgba?|hsla?)\(|\b(transparent|currentcolor)\b)`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z]+`)
	hexColor      = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
}

// Fields splits a value on top-level whitespace. Parenthesized groups and
// quoted strings stay whole.
func Fields(value string) []string {
	var (
		out   []string
		start = -1
		depth int
		quote byte
	)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			if start >= 0 {
				out = append(out, value[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, value[start:])
	}
	return out
}

// IsLiteralColor reports whether a single value component is a literal
// color: hex, rgb[a], hsl[a], transparent, currentColor or a named color.
func IsLiteralColor(field string) bool {
	if strings.HasPrefix(field, "#") {
		_, ok := NormalizeHex(field)
		return ok
	}
	if colorFunction.MatchString(field) {
		return true
	}
	switch strings.ToLower(field) {
	case "transparent", "currentcolor":
		return true
	}
	_, ok := palette.NamedColor(strings.ToLower(field))
	return ok
}

// ColorComponent finds the first top-level literal color of a shorthand
// value. rest holds the remaining components in order.
func ColorComponent(value string) (color, rest string, ok bool) {
	fields := Fields(value)
	for i, f := range fields {
		if IsLiteralColor(f) {
			others := append(append([]string{}, fields[:i]...), fields[i+1:]...)
			return f, strings.Join(others, " "), true
		}
	}
	return "", value, false
}

// ContainsColor reports whether a literal color appears anywhere in value,
// inside functions such as gradients included.
func ContainsColor(value string) bool {
	if embeddedColor.MatchString(value) {
		return true
	}
	for _, w := range wordPattern.FindAllString(value, -1) {
		if _, ok := palette.NamedColor(strings.ToLower(w)); ok {
			return true
		}
	}
	return false
}

// NormalizeHex returns the lowercase #rrggbb form of a 3 or 6 digit hex
// color. Colors with alpha digits are validated and returned lowercased.
func NormalizeHex(s string) (string, bool) {
	if !hexColor.MatchString(s) {
		return "", false
	}
	switch len(s) {
	case 5, 9:
		return strings.ToLower(s), true
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", false
	}
	return c.Hex(), true
}
