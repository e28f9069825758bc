package palette

import (
	"log/slog"
	"regexp"
	"strings"
)

// definitionLine captures the variable name and the value up to the last
// semicolon. The separator must be followed by at least one space.
var definitionLine = regexp.MustCompile(`^([@a-zA-Z0-9-]+).*:[ ]+(.*);`)

// ParseDefinitions returns every variable definition in text.
//
// Only lines starting with `@` and containing `:` are considered. The
// second return value lists the line numbers of candidate lines that did
// not parse; they are skipped, never fatal.
func ParseDefinitions(text string) ([]Definition, []int) {
	var defs []Definition
	var skipped []int

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "@") || !strings.Contains(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "@import") {
			continue
		}
		m := definitionLine.FindStringSubmatch(line)
		if m == nil {
			skipped = append(skipped, i+1)
			continue
		}
		defs = append(defs, Definition{
			Name:     m[1],
			RawValue: strings.TrimSpace(m[2]),
			Line:     i + 1,
		})
	}
	return defs, skipped
}

// Resolver turns flattened variable text into a Mapping.
type Resolver struct {
	Validator *Validator
	Logger    *slog.Logger
}

// NewResolver returns a resolver using v, or the default validator when
// v is nil.
func NewResolver(v *Validator, logger *slog.Logger) *Resolver {
	if v == nil {
		v = MustValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{Validator: v, Logger: logger}
}

// Resolve parses and resolves text. Imports must already be inlined.
//
// A later definition of the same name overrides an earlier one. References
// are followed through the whole definition set; a chain longer than the
// number of definitions is a cycle and drops only that variable.
func (r *Resolver) Resolve(text string) *Resolution {
	defs, skipped := ParseDefinitions(text)
	return r.ResolveDefinitions(defs, skipped)
}

// ResolveDefinitions resolves an already parsed definition list.
func (r *Resolver) ResolveDefinitions(defs []Definition, skipped []int) *Resolution {
	raw := make(map[string]string, len(defs))
	var order []string
	for _, d := range defs {
		if _, seen := raw[d.Name]; !seen {
			order = append(order, d.Name)
		}
		raw[d.Name] = d.RawValue
	}

	res := &Resolution{
		Mapping: make(Mapping, len(order)),
		Skipped: skipped,
	}

	for _, name := range order {
		outcome := r.resolveOne(name, raw)
		if outcome.Accepted {
			res.Mapping[name] = outcome.Color
		} else {
			r.Logger.Debug("variable dropped",
				"name", name,
				"value", outcome.Raw,
				"reason", string(outcome.Reason))
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	for _, line := range skipped {
		r.Logger.Debug("definition line skipped", "line", line)
	}

	return res
}

func (r *Resolver) resolveOne(name string, raw map[string]string) Outcome {
	out := Outcome{Name: name, Raw: raw[name]}

	value, reason := follow(raw[name], raw)
	if reason != "" {
		out.Reason = reason
		return out
	}

	if r.Validator.IsColor(value) {
		out.Color = value
		out.Accepted = true
		return out
	}
	if hex, ok := NamedColor(value); ok {
		out.Color = hex
		out.Accepted = true
		return out
	}

	out.Reason = ReasonNotColor
	return out
}

// follow dereferences value until it is no longer a variable reference.
// Each step consumes one indirection, so more steps than definitions
// means a loop.
func follow(value string, raw map[string]string) (string, RejectReason) {
	for steps := 0; isReference(value); steps++ {
		if steps >= len(raw) {
			return "", ReasonCycle
		}
		next, ok := raw[value]
		if !ok {
			return "", ReasonUnresolved
		}
		value = next
	}
	return value, ""
}

func isReference(value string) bool {
	if !strings.HasPrefix(value, "@") || len(value) < 2 {
		return false
	}
	for _, c := range value[1:] {
		if !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
