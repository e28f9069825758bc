// Package cssrule splits compiled CSS into the declarations that carry
// colors and the ones that do not.
package cssrule

import "strings"

// Node is an entry of a Sheet, a Rule or an AtRule block.
type Node interface {
	write(b *strings.Builder)
}

// Sheet is a parsed stylesheet.
type Sheet struct {
	Nodes []Node

	// Skipped counts constructs the parser could not read. They are left
	// out of the tree.
	Skipped int
}

// Comment is a block comment, delimiters included.
type Comment struct {
	Text string
}

// Decl is one declaration.
type Decl struct {
	Prop      string
	Value     string
	Important bool
}

// Rule is a qualified rule. Nodes holds Decls and Comments in source order.
type Rule struct {
	Selector string
	Nodes    []Node
}

// AtRule is an at-rule. Statements like @import have Block false.
type AtRule struct {
	Name    string
	Prelude string
	Block   bool
	Nodes   []Node
}

// String prints one top-level node per line.
func (s *Sheet) String() string {
	var b strings.Builder
	for i, n := range s.Nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		n.write(&b)
	}
	return b.String()
}

func (c *Comment) write(b *strings.Builder) {
	b.WriteString(c.Text)
}

func (d *Decl) write(b *strings.Builder) {
	b.WriteString(d.Prop)
	b.WriteByte(':')
	b.WriteString(d.Value)
	if d.Important {
		b.WriteString(" !important")
	}
}

func (r *Rule) write(b *strings.Builder) {
	b.WriteString(r.Selector)
	b.WriteByte('{')
	writeBlock(b, r.Nodes)
	b.WriteByte('}')
}

func (a *AtRule) write(b *strings.Builder) {
	b.WriteString(a.Name)
	if a.Prelude != "" {
		b.WriteByte(' ')
		b.WriteString(a.Prelude)
	}
	if !a.Block {
		b.WriteByte(';')
		return
	}
	b.WriteByte('{')
	writeBlock(b, a.Nodes)
	b.WriteByte('}')
}

func writeBlock(b *strings.Builder, nodes []Node) {
	for i, n := range nodes {
		n.write(b)
		if _, ok := n.(*Decl); ok && i < len(nodes)-1 {
			b.WriteByte(';')
		}
	}
}

// Decls returns the declarations of a block, comments skipped.
func Decls(nodes []Node) []*Decl {
	var out []*Decl
	for _, n := range nodes {
		if d, ok := n.(*Decl); ok {
			out = append(out, d)
		}
	}
	return out
}
