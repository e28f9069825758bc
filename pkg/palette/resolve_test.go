package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/util"
)

func newTestResolver(t *testing.T, extra ...string) *Resolver {
	t.Helper()
	v, err := NewValidator(extra...)
	require.NoError(t, err)
	return NewResolver(v, util.Discard())
}

func TestValidator_IsColor(t *testing.T) {
	v := MustValidator()

	tests := []struct {
		value string
		want  bool
	}{
		{"#fff", true},
		{"#ffffff", true},
		{"#ffff", true},
		{"#1890ffcc", true},
		{"rgba(0,0,0,.5)", true},
		{"rgb(24, 144, 255)", true},
		{"hsl(210, 100%, 50%)", true},
		{"hsva(210 100% 50% / 0.5)", true},
		{"transparent", true},
		{"currentColor", true},
		{"fade(@black, 85%)", true},
		{"tint(@primary-color, 20%)", true},
		{"darken(@link-color, 10%)", true},
		{"color(~`colorPalette('@{primary-color}', 5)`)", true},
		{"12px", false},
		{"bold", false},
		{"#ff", false},
		{"#ggg", false},
		{"#12zz", false},
		{"", false},
		{"1px solid #fff", false},
		{"'Helvetica Neue'", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsColor(tt.value))
		})
	}
}

func TestValidator_CustomPatterns(t *testing.T) {
	v, err := NewValidator(`^var\(--[\w-]+\)$`)
	require.NoError(t, err)
	assert.True(t, v.IsColor("var(--brand)"))
	assert.False(t, MustValidator().IsColor("var(--brand)"))

	_, err = NewValidator(`(`)
	require.Error(t, err)
}

func TestParseDefinitions(t *testing.T) {
	text := "@primary-color: #1890ff;\r\n" +
		"// comment\n" +
		"@font-size-base: 14px; // trailing\n" +
		"@media (min-width:100px) {\n" +
		"@import 'x';\n" +
		"@border-color-base:hsv(0,0,85%);\n" +
		".cls { color: red; }\n"

	defs, skipped := ParseDefinitions(text)
	require.Len(t, defs, 2)
	assert.Equal(t, Definition{Name: "@primary-color", RawValue: "#1890ff", Line: 1}, defs[0])
	assert.Equal(t, "@font-size-base", defs[1].Name)
	assert.Equal(t, "14px", defs[1].RawValue)

	// The media query and the separator without a space do not parse.
	assert.Equal(t, []int{4, 6}, skipped)
}

func TestResolve_UnparsedLinesAreNotRejections(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve("@a: #fff;\n@b:#000;\n")

	assert.Equal(t, []int{2}, res.Skipped)
	require.Len(t, res.Outcomes, 1)
	assert.Empty(t, res.Rejected())
	assert.False(t, res.Mapping.Has("@b"))
}

func TestResolve_Chain(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve("@a: @b;\n@b: @c;\n@c: #112233;\n")

	assert.Equal(t, "#112233", res.Mapping["@a"])
	assert.Equal(t, "#112233", res.Mapping["@b"])
	assert.Equal(t, "#112233", res.Mapping["@c"])
	assert.Empty(t, res.Rejected())
}

func TestResolve_DropsNonColors(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve(`@primary-color: #1890ff;
@font-size-base: 14px;
@font-weight: bold;
@link-color: @primary-color;
@padding: @font-size-base;
@text-color: fade(#000, 85%);
@heading-color: red;
`)

	assert.Equal(t, Mapping{
		"@primary-color": "#1890ff",
		"@link-color":    "#1890ff",
		"@text-color":    "fade(#000, 85%)",
		"@heading-color": "#ff0000",
	}, res.Mapping)

	rejected := res.Rejected()
	require.Len(t, rejected, 3)
	for _, o := range rejected {
		assert.Equal(t, ReasonNotColor, o.Reason, o.Name)
	}
}

func TestResolve_CycleDropsOnlyThatVariable(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve("@a: @b;\n@b: @a;\n@self: @self;\n@ok: #fff;\n")

	assert.Equal(t, Mapping{"@ok": "#fff"}, res.Mapping)

	reasons := map[string]RejectReason{}
	for _, o := range res.Outcomes {
		reasons[o.Name] = o.Reason
	}
	assert.Equal(t, ReasonCycle, reasons["@a"])
	assert.Equal(t, ReasonCycle, reasons["@b"])
	assert.Equal(t, ReasonCycle, reasons["@self"])
}

func TestResolve_UnresolvedReference(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve("@a: @missing;\n")

	assert.Empty(t, res.Mapping)
	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, ReasonUnresolved, res.Outcomes[0].Reason)
}

func TestResolve_LastDefinitionWins(t *testing.T) {
	r := newTestResolver(t)
	res := r.Resolve("@primary-color: #1890ff;\n@primary-color: #722ed1;\n")

	assert.Equal(t, "#722ed1", res.Mapping["@primary-color"])
	assert.Len(t, res.Outcomes, 1)
}

func TestMapping_Names(t *testing.T) {
	m := Mapping{"@b": "#000", "@a": "#fff"}
	assert.Equal(t, []string{"@a", "@b"}, m.Names())
	assert.True(t, m.Has("@a"))

	c := m.Clone()
	c["@c"] = "#111"
	assert.False(t, m.Has("@c"))
}

func TestNamedColor(t *testing.T) {
	hex, ok := NamedColor("AliceBlue")
	assert.True(t, ok)
	assert.Equal(t, "#f0f8ff", hex)

	_, ok = NamedColor("not-a-color")
	assert.False(t, ok)
}
