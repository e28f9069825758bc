package probe

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gnana997/lesstheme/pkg/shade"
)

// ClassPrefix starts the class name of every probe rule.
const ClassPrefix = "lesstheme-probe-"

// compiledRule matches one probe rule in compiled output.
var compiledRule = regexp.MustCompile(`\.` + ClassPrefix + `([\w-]+)\s*\{\s*color:\s*([^;}]+?)\s*;?\s*\}`)

var blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)

// ClassName returns the probe class for a symbolic name.
func ClassName(name string) string {
	return ClassPrefix + strings.TrimPrefix(name, "@")
}

// NameOf inverts ClassName. It returns false for classes that are not
// probe classes.
func NameOf(class string) (string, bool) {
	class = strings.TrimPrefix(class, ".")
	rest, ok := strings.CutPrefix(class, ClassPrefix)
	if !ok || rest == "" {
		return "", false
	}
	return "@" + rest, true
}

// Stylesheet emits one probe rule per spec. Base and self specs reference
// the variable; derived specs carry their generator expression.
func Stylesheet(specs []shade.Spec) string {
	var b strings.Builder
	for _, s := range specs {
		b.WriteString(".")
		b.WriteString(ClassName(s.Name))
		b.WriteString("{color:")
		b.WriteString(s.Expression)
		b.WriteString(";}\n")
	}
	return b.String()
}

// Variables emits an `@name: #sentinel;` line per assigned name, sorted by
// name so equal assignments produce equal text.
func Variables(a Assignment) string {
	names := make([]string, 0, len(a.ByName))
	for name := range a.ByName {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(a.ByName[name])
		b.WriteString(";\n")
	}
	return b.String()
}

// StripComments removes block comments from compiled output.
func StripComments(css string) string {
	return blockComment.ReplaceAllString(css, "")
}

// Invert reads every probe rule in compiled CSS and returns symbolic name
// to compiled color. Later rules for the same name win.
func Invert(css string) map[string]string {
	out := make(map[string]string)
	for _, m := range compiledRule.FindAllStringSubmatch(StripComments(css), -1) {
		out["@"+m[1]] = strings.TrimSpace(m[2])
	}
	return out
}
