package asset

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// SplitTag separates the fragments of one artifact in the concatenated
// stylesheet. It is a comment so the classifier passes it through.
const SplitTag = "/* <get-css-from-asset-comment> */"

// bareQuote matches a double quote with no backslash in front of it.
var bareQuote = regexp2.MustCompile(`(?<!\\)"`, regexp2.None)

// Unescape turns a fragment as serialized inside a script back into CSS:
// `\\n` becomes a newline and `\\\"` a double quote. Other escapes are
// left as they are.
func Unescape(s string) string {
	s = strings.ReplaceAll(s, `\\n`, "\n")
	return strings.ReplaceAll(s, `\\\"`, `"`)
}

// Escape is the inverse of Unescape. Quotes that already carry a
// backslash, as in url(\"x.png\"), are not escaped again.
func Escape(s string) (string, error) {
	s = strings.ReplaceAll(s, "\n", `\\n`)
	return bareQuote.Replace(s, `\\\"`, -1, -1)
}

// Join concatenates fragments with SplitTag between them.
func Join(fragments []string) string {
	var b strings.Builder
	for i, f := range fragments {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(SplitTag)
		}
		b.WriteString("\n")
		b.WriteString(f)
	}
	return b.String()
}

// Split cuts a classified stylesheet back into per-fragment pieces. The
// newlines Join and the printer put around SplitTag are dropped.
func Split(css string) []string {
	pieces := strings.Split(css, SplitTag)
	for i, p := range pieces {
		pieces[i] = strings.Trim(p, "\n")
	}
	return pieces
}
