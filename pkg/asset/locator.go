package asset

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/gnana997/lesstheme/pkg/parser"
	"github.com/gnana997/lesstheme/pkg/parser/queries"
)

// Span is the byte range of one serialized fragment inside an artifact.
type Span struct {
	Start int
	End   int
}

// Locator finds the serialized stylesheet fragments of a script artifact.
// Spans are returned in source order and never overlap.
type Locator interface {
	Locate(text string) ([]Span, error)
}

// DevPattern matches css-loader registrations in unminified development
// bundles, where modules are wrapped in eval strings.
var DevPattern = regexp.MustCompile(`\bn?exports\.push\(\[module\.i, \\?"(.+?\})(?:\\?\\n)?(?:[\\n]*/\*#\s*sourceMappingURL=.+?\*/)?\\?", \\?"\\?"(?:\]\)|,\s*\{)`)

// MinifiedPattern matches the same registration after minification.
var MinifiedPattern = regexp.MustCompile(`\.push\(\[\w+\.i,['"](.+?\})[\\rn]*['"],['"]['"](?:\]\)|,\{)`)

// RegexLocator reports the first capture group of every match.
type RegexLocator struct {
	Pattern *regexp.Regexp
}

// DevLocator locates fragments in development bundles.
func DevLocator() *RegexLocator {
	return &RegexLocator{Pattern: DevPattern}
}

// MinifiedLocator locates fragments in minified bundles.
func MinifiedLocator() *RegexLocator {
	return &RegexLocator{Pattern: MinifiedPattern}
}

// Locate implements Locator.
func (l *RegexLocator) Locate(text string) ([]Span, error) {
	var spans []Span
	for _, m := range l.Pattern.FindAllStringSubmatchIndex(text, -1) {
		if len(m) < 4 || m[2] < 0 {
			continue
		}
		spans = append(spans, Span{Start: m[2], End: m[3]})
	}
	return spans, nil
}

// ASTLocator finds fragments by parsing the artifact and matching the
// registration call structurally. Spans cover the string literal contents
// without the quotes.
type ASTLocator struct {
	Parsers  *parser.ParserManager
	Queries  *queries.QueryManager
	Language parser.Language
}

// NewASTLocator returns a JavaScript locator.
func NewASTLocator(pm *parser.ParserManager, qm *queries.QueryManager) *ASTLocator {
	return &ASTLocator{Parsers: pm, Queries: qm, Language: parser.LanguageJavaScript}
}

// Locate implements Locator.
func (l *ASTLocator) Locate(text string) ([]Span, error) {
	source := []byte(text)

	tree, err := l.Parsers.Parse(source, l.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	defer tree.Close()

	query, err := l.Queries.GetQuery(l.Language, queries.QueryTypeStyles)
	if err != nil {
		return nil, err
	}
	matches, err := l.Queries.ExecuteQuery(tree, query, source)
	if err != nil {
		return nil, err
	}

	var spans []Span
	for _, m := range matches {
		c, ok := m.Capture("push.css")
		if !ok || c.EndByte-c.StartByte < 2 {
			continue
		}
		spans = append(spans, Span{Start: int(c.StartByte) + 1, End: int(c.EndByte) - 1})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, nil
}
