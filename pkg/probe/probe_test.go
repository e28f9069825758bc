package probe

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/lessc"
	"github.com/gnana997/lesstheme/pkg/probe/probetest"
	"github.com/gnana997/lesstheme/pkg/shade"
	"github.com/gnana997/lesstheme/pkg/util"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestAssign_CollisionFree(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 1234} {
		r := seeded(seed)
		n := 1000 + r.IntN(4000)

		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("@var-%d", i)
		}

		a, err := Assign(names, r, nil)
		require.NoError(t, err)
		assert.Equal(t, n, a.Len())
		assert.Len(t, a.ByColor, n, "seed %d produced duplicate sentinels", seed)

		for name, color := range a.ByName {
			assert.Equal(t, name, a.ByColor[color])
			assert.Len(t, color, 7)
		}
	}
}

func TestAssign_Reuse(t *testing.T) {
	prev := NewAssignment()
	require.NoError(t, prev.Put("@primary-color", "#ABCDEF"))

	a, err := Assign([]string{"@primary-color", "@link-color"}, seeded(3), &prev)
	require.NoError(t, err)
	assert.Equal(t, "#abcdef", a.ByName["@primary-color"])
	assert.NotEqual(t, "#abcdef", a.ByName["@link-color"])
}

func TestAssignment_Put(t *testing.T) {
	a := NewAssignment()
	require.NoError(t, a.Put("@a", "#111111"))
	require.NoError(t, a.Put("@a", "#111111"))
	assert.Error(t, a.Put("@b", "#111111"))
	assert.Error(t, a.Put("@a", "#222222"))
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "lesstheme-probe-primary-1", ClassName("@primary-1"))

	name, ok := NameOf(".lesstheme-probe-primary-color")
	require.True(t, ok)
	assert.Equal(t, "@primary-color", name)

	_, ok = NameOf("btn-primary")
	assert.False(t, ok)
}

func TestStylesheet(t *testing.T) {
	specs := shade.NewGenerator("").For("@primary-color")[:2]
	got := Stylesheet(specs)
	assert.Equal(t,
		".lesstheme-probe-primary-color{color:@primary-color;}\n"+
			".lesstheme-probe-primary-1{color:color(~`colorPalette(\"@{primary-color}\", 1)`);}\n",
		got)
}

func TestVariables_Sorted(t *testing.T) {
	a := NewAssignment()
	require.NoError(t, a.Put("@b", "#000002"))
	require.NoError(t, a.Put("@a", "#000001"))
	assert.Equal(t, "@a: #000001;\n@b: #000002;\n", Variables(a))
}

func TestInvert(t *testing.T) {
	css := `/* generated */
.lesstheme-probe-primary-color {
  color: #1890ff;
}
.lesstheme-probe-primary-1{color:#e6f7ff}
.lesstheme-probe-x-derived-2 { color: rgba(24, 144, 255, 0.2); }
.other { color: red; }
`
	got := Invert(css)
	assert.Equal(t, map[string]string{
		"@primary-color": "#1890ff",
		"@primary-1":     "#e6f7ff",
		"@x-derived-2":   "rgba(24, 144, 255, 0.2)",
	}, got)
}

func newProber(t *testing.T, c lessc.Compiler) *Prober {
	t.Helper()
	p, err := NewProber(c, 0, util.Discard())
	require.NoError(t, err)
	return p
}

func TestProbe_InversionMatchesAssignment(t *testing.T) {
	specs := []shade.Spec{
		shade.Self("@primary-color"),
		shade.Self("@link-color"),
		shade.Self("@border-color-base"),
	}

	p := newProber(t, &probetest.Compiler{})
	res, err := p.Probe(context.Background(), Input{Specs: specs, Rand: seeded(11)})
	require.NoError(t, err)

	assert.Empty(t, res.Missing)
	assert.Equal(t, map[string]string(res.Mapping), res.Assignment.ByName)
}

func TestProbe_PrimaryEndToEnd(t *testing.T) {
	specs := shade.NewGenerator("").For("@primary-color")

	p := newProber(t, &probetest.Compiler{})
	res, err := p.Probe(context.Background(), Input{
		Specs:     specs,
		Framework: "@import \"./color/colors\";\n@primary-color: #1890ff;\n",
		Rand:      seeded(5),
	})
	require.NoError(t, err)

	// base plus nine levels; level 6 is the base itself
	require.Len(t, res.Mapping, 10)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Collisions)

	seen := map[string]bool{}
	for _, name := range []string{"@primary-color", "@primary-1", "@primary-5", "@primary-7", "@primary-10"} {
		color, ok := res.Mapping[name]
		require.True(t, ok, name)
		assert.False(t, seen[color], "duplicate color for %s", name)
		seen[color] = true
	}

	assert.Equal(t, res.Assignment.ByName["@primary-color"], res.Mapping["@primary-color"])
	assert.Len(t, res.Assignment.ByName, 1, "only roots get sentinels")

	suffix := res.LoaderSuffix()
	assert.True(t, strings.HasPrefix(suffix, "@primary-color: "+res.Mapping["@primary-color"]+";"))
	assert.Equal(t, 10, strings.Count(suffix, ";"))
}

func TestProbe_Templates(t *testing.T) {
	specs := shade.NewGenerator("view-design").For("@primary-color")

	p := newProber(t, &probetest.Compiler{})
	res, err := p.Probe(context.Background(), Input{Specs: specs, Rand: seeded(9)})
	require.NoError(t, err)

	assert.Len(t, res.Mapping, len(specs))
	assert.True(t, strings.HasPrefix(res.Mapping["@primary-color-derived-2"], "rgba("))
}

func TestProbe_MissingReported(t *testing.T) {
	specs := shade.NewGenerator("").For("@primary-color")
	c := &probetest.Compiler{Drop: map[string]bool{ClassName("@primary-3"): true}}

	res, err := newProber(t, c).Probe(context.Background(), Input{Specs: specs, Rand: seeded(2)})
	require.NoError(t, err)

	assert.Equal(t, []string{"@primary-3"}, res.Missing)
	_, ok := res.Mapping["@primary-3"]
	assert.False(t, ok)
}

func TestProbe_CachedByInput(t *testing.T) {
	specs := shade.NewGenerator("").For("@primary-color")
	c := &probetest.Compiler{}
	p := newProber(t, c)

	first, err := p.Probe(context.Background(), Input{Specs: specs, Rand: seeded(1)})
	require.NoError(t, err)
	second, err := p.Probe(context.Background(), Input{Specs: specs, Rand: seeded(99)})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Calls)

	p.Forget()
	_, err = p.Probe(context.Background(), Input{Specs: specs, Rand: seeded(99)})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Calls)
}

func TestProbe_CompileFailure(t *testing.T) {
	failing := lessc.Func(func(context.Context, lessc.Request) (string, error) {
		return "", &lessc.CompileError{Message: "boom"}
	})

	_, err := newProber(t, failing).Probe(context.Background(), Input{Specs: []shade.Spec{shade.Self("@a")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lessc.ErrCompile))
}

func TestProbe_DuplicateNames(t *testing.T) {
	_, err := newProber(t, &probetest.Compiler{}).Probe(context.Background(), Input{
		Specs: []shade.Spec{shade.Self("@a"), shade.Self("@a")},
	})
	assert.Error(t, err)
}

func TestProbe_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newProber(t, &probetest.Compiler{}).Probe(ctx, Input{Specs: []shade.Spec{shade.Self("@a")}})
	assert.ErrorIs(t, err, context.Canceled)
}
