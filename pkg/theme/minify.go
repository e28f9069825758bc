package theme

import (
	"regexp"
	"strings"
)

var (
	minifyComment   = regexp.MustCompile(`/\*[\s\S]*?\*/|//.*`)
	minifyBlank     = regexp.MustCompile(`(?m)^\s*$(?:\r\n?|\n)`)
	minifyOpen      = regexp.MustCompile(`\{(?:\r\n?|\n)\s+`)
	minifyClose     = regexp.MustCompile(`;(?:\r\n?|\n)\}`)
	minifyDecl      = regexp.MustCompile(`;(?:\r\n?|\n)\s+`)
	minifySelectors = regexp.MustCompile(`,(?:\r\n?|\n)\.`)
)

// Minify folds a stylesheet onto one line. Comments, including `//` line
// comments, are removed; whitespace inside declarations is kept.
func Minify(css string) string {
	css = minifyComment.ReplaceAllString(css, "")
	css = minifyBlank.ReplaceAllString(css, "")
	css = minifyOpen.ReplaceAllString(css, "{")
	css = minifyClose.ReplaceAllString(css, ";}")
	css = minifyDecl.ReplaceAllString(css, ";")
	css = minifySelectors.ReplaceAllString(css, ", .")
	return strings.ReplaceAll(css, "\n", "")
}
