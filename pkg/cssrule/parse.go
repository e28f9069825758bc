package cssrule

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

var importantSuffix = regexp.MustCompile(`(?i)\s*!\s*important$`)

// Parse reads a stylesheet. Unreadable constructs are counted in
// Sheet.Skipped; only a failure of the input itself is returned.
func Parse(text string) (*Sheet, error) {
	p := css.NewParser(parse.NewInputString(text), false)

	sheet := &Sheet{}
	// stack of open blocks; the bottom entry collects top-level nodes
	stack := []*[]Node{&sheet.Nodes}
	var selectors []string

	push := func(n Node) {
		top := stack[len(stack)-1]
		*top = append(*top, n)
	}

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.HasParseError() && sheet.Skipped < len(text) {
				sheet.Skipped++
				continue
			}
			if err := p.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to parse css: %w", err)
			}
			return sheet, nil

		case css.CommentGrammar:
			push(&Comment{Text: string(data)})

		case css.AtRuleGrammar:
			push(&AtRule{Name: string(data), Prelude: join(p.Values())})

		case css.BeginAtRuleGrammar:
			at := &AtRule{Name: string(data), Prelude: join(p.Values()), Block: true}
			push(at)
			stack = append(stack, &at.Nodes)

		case css.QualifiedRuleGrammar:
			selectors = append(selectors, join(p.Values()))

		case css.BeginRulesetGrammar:
			selectors = append(selectors, join(p.Values()))
			r := &Rule{Selector: strings.Join(selectors, ",")}
			selectors = selectors[:0]
			push(r)
			stack = append(stack, &r.Nodes)

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			push(newDecl(string(data), join(p.Values())))
		}
	}
}

func newDecl(prop, value string) *Decl {
	value = strings.TrimSpace(value)
	d := &Decl{Prop: strings.TrimSpace(prop), Value: value}
	if loc := importantSuffix.FindStringIndex(value); loc != nil {
		d.Value = strings.TrimSpace(value[:loc[0]])
		d.Important = true
	}
	return d
}

// join concatenates token data, collapsing whitespace to single spaces.
func join(tokens []css.Token) string {
	var b strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = b.Len() > 0
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.Write(t.Data)
	}
	return b.String()
}
