package cssrule

import (
	"regexp"
	"strings"
)

var (
	// colorProp matches properties kept verbatim by Extract.
	colorProp = regexp.MustCompile(`(?i)(color|box-shadow)$`)

	// lineProp matches border and outline shorthands.
	lineProp = regexp.MustCompile(`(?i)^(border|outline)(-(left|right|top|bottom))?$`)

	urlRef = regexp.MustCompile(`(?i)url\(`)
)

// class is how a declaration is treated.
type class int

const (
	// plain declarations stay in the static sheet
	plain class = iota
	// color declarations move to the themed sheet whole
	whole
	// shorthands with a literal color are split between the sheets
	split
)

func classify(d *Decl) class {
	prop := strings.ToLower(d.Prop)
	switch {
	case colorProp.MatchString(prop):
		return whole
	case lineProp.MatchString(prop):
		if _, _, ok := ColorComponent(d.Value); ok {
			return split
		}
	case prop == "background":
		if urlRef.MatchString(d.Value) {
			return plain
		}
		if _, _, ok := ColorComponent(d.Value); ok {
			return split
		}
		// gradients carry their colors inside a function
		if ContainsColor(d.Value) {
			return whole
		}
	}
	return plain
}

// IsColorDecl reports whether Extract keeps any part of d.
func IsColorDecl(d *Decl) bool {
	return classify(d) != plain
}

// CountColorDecls returns the number of declarations in sheet, nested
// blocks included, that carry a theme color.
func CountColorDecls(sheet *Sheet) int {
	return countColorDecls(sheet.Nodes)
}

func countColorDecls(nodes []Node) int {
	var n int
	for _, d := range Decls(nodes) {
		if IsColorDecl(d) {
			n++
		}
	}
	for _, node := range nodes {
		switch node := node.(type) {
		case *Rule:
			n += countColorDecls(node.Nodes)
		case *AtRule:
			n += countColorDecls(node.Nodes)
		}
	}
	return n
}

// Extract returns the color-bearing part of sheet. Border, outline and
// background shorthands become <prop>-color declarations. Comments are dropped and
// emptied blocks pruned. sheet is not modified.
func Extract(sheet *Sheet) *Sheet {
	return &Sheet{Nodes: extractNodes(sheet.Nodes)}
}

func extractNodes(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		switch n := n.(type) {
		case *Decl:
			switch classify(n) {
			case whole:
				out = append(out, n)
			case split:
				color, _, _ := ColorComponent(n.Value)
				out = append(out, &Decl{Prop: n.Prop + "-color", Value: color, Important: n.Important})
			}
		case *Rule:
			if kept := extractNodes(n.Nodes); len(kept) > 0 {
				out = append(out, &Rule{Selector: n.Selector, Nodes: kept})
			}
		case *AtRule:
			if !n.Block {
				continue
			}
			if kept := extractNodes(n.Nodes); len(kept) > 0 {
				out = append(out, &AtRule{Name: n.Name, Prelude: n.Prelude, Block: true, Nodes: kept})
			}
		}
	}
	return out
}

// Reduce returns sheet without what Extract keeps. Border and outline
// shorthands keep their width and style as longhands; a background keeps
// its other layers' values. Comments stay.
// Blocks left without declarations are pruned. sheet is not modified.
func Reduce(sheet *Sheet) *Sheet {
	return &Sheet{Nodes: reduceNodes(sheet.Nodes)}
}

func reduceNodes(nodes []Node) []Node {
	var out []Node
	for _, n := range nodes {
		switch n := n.(type) {
		case *Comment:
			out = append(out, n)
		case *Decl:
			switch classify(n) {
			case plain:
				out = append(out, n)
			case split:
				out = append(out, remainder(n)...)
			}
		case *Rule:
			if kept := reduceNodes(n.Nodes); hasContent(kept) {
				out = append(out, &Rule{Selector: n.Selector, Nodes: kept})
			}
		case *AtRule:
			if !n.Block {
				out = append(out, n)
				continue
			}
			if kept := reduceNodes(n.Nodes); hasContent(kept) {
				out = append(out, &AtRule{Name: n.Name, Prelude: n.Prelude, Block: true, Nodes: kept})
			}
		}
	}
	return out
}

// remainder is what Reduce keeps of a split shorthand.
func remainder(d *Decl) []Node {
	_, rest, _ := ColorComponent(d.Value)
	if strings.EqualFold(d.Prop, "background") {
		if rest == "" {
			return nil
		}
		return []Node{&Decl{Prop: d.Prop, Value: rest, Important: d.Important}}
	}

	var widths, styles []string
	for _, f := range Fields(rest) {
		if borderStyles[strings.ToLower(f)] {
			styles = append(styles, f)
		} else {
			widths = append(widths, f)
		}
	}

	var out []Node
	if len(widths) > 0 {
		out = append(out, &Decl{Prop: d.Prop + "-width", Value: strings.Join(widths, " "), Important: d.Important})
	}
	if len(styles) > 0 {
		out = append(out, &Decl{Prop: d.Prop + "-style", Value: strings.Join(styles, " "), Important: d.Important})
	}
	return out
}

// hasContent reports whether a block keeps anything besides comments.
func hasContent(nodes []Node) bool {
	for _, n := range nodes {
		if _, ok := n.(*Comment); !ok {
			return true
		}
	}
	return false
}

// ExtractCSS parses css and returns the printed Extract output.
func ExtractCSS(css string) (string, error) {
	sheet, err := Parse(css)
	if err != nil {
		return "", err
	}
	return Extract(sheet).String(), nil
}

// ReduceCSS parses css and returns the printed Reduce output.
func ReduceCSS(css string) (string, error) {
	sheet, err := Parse(css)
	if err != nil {
		return "", err
	}
	return Reduce(sheet).String(), nil
}
