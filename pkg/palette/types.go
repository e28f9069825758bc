package palette

import "sort"

// Definition is one `@name: value;` line of a variable stylesheet.
type Definition struct {
	// Name includes the `@` sigil, e.g. "@primary-color".
	Name string

	// RawValue is the text between the separator and the final semicolon.
	// It may be a literal color, a reference to another variable, or a
	// preprocessor function call.
	RawValue string

	// Line is the 1-based line number in the flattened source.
	Line int
}

// Mapping maps a variable name to its resolved concrete color.
//
// Every value is a literal color (or a generator call the preprocessor
// evaluates later); unresolved references never appear as values.
type Mapping map[string]string

// Names returns the mapping keys in sorted order.
func (m Mapping) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is present.
func (m Mapping) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// Clone returns a shallow copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RejectReason explains why a definition was left out of the Mapping.
type RejectReason string

const (
	// ReasonNotColor means the value resolved but is not a color
	// (spacing, font family, z-index...).
	ReasonNotColor RejectReason = "not-color"

	// ReasonUnresolved means the value references an unknown variable.
	ReasonUnresolved RejectReason = "unresolved"

	// ReasonCycle means the reference chain loops or exceeds the
	// number of known definitions.
	ReasonCycle RejectReason = "cycle"
)

// Outcome is the per-variable result of a resolution pass.
type Outcome struct {
	Name     string
	Raw      string
	Color    string
	Accepted bool
	Reason   RejectReason
}

// Resolution is the result of resolving one variable stylesheet.
type Resolution struct {
	Mapping Mapping

	// Outcomes lists every distinct variable in first-seen order.
	Outcomes []Outcome

	// Skipped holds line numbers that started with the sigil but could
	// not be parsed as a definition.
	Skipped []int
}

// Rejected returns the outcomes that were dropped from the mapping.
func (r *Resolution) Rejected() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Accepted {
			out = append(out, o)
		}
	}
	return out
}
