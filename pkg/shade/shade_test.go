package shade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(specs []Spec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

func TestGenerator_PrimaryLevels(t *testing.T) {
	g := NewGenerator("")
	specs := g.For("@primary-color")

	assert.Equal(t, []string{
		"@primary-color",
		"@primary-1", "@primary-2", "@primary-3", "@primary-4", "@primary-5",
		"@primary-7", "@primary-8", "@primary-9", "@primary-10",
	}, names(specs))

	assert.Equal(t, KindBase, specs[0].Kind)
	assert.Equal(t, "@primary-color", specs[0].Expression)

	assert.Equal(t, KindLevel, specs[3].Kind)
	assert.Equal(t, "3", specs[3].Key)
	assert.Equal(t, "color(~`colorPalette(\"@{primary-color}\", 3)`)", specs[3].Expression)
	assert.Equal(t, "color(~`colorPalette(\"@{primary-color}\", 10)`)", specs[9].Expression)
}

func TestGenerator_OtherBaseLevels(t *testing.T) {
	specs := NewGenerator("").For("@link-color")
	require.Len(t, specs, 10)
	assert.Equal(t, "@link-color-1", specs[1].Name)
	assert.Equal(t, "color(~`colorPalette(\"@{link-color}\", 1)`)", specs[1].Expression)
}

func TestGenerator_Templates(t *testing.T) {
	g := NewGenerator("view-design", "mix("+DerivedTag+", #fff, 50%)")
	specs := g.For("@primary-color")

	require.Len(t, specs, 10+len(ViewDesignTemplates)+1)

	first := specs[10]
	assert.Equal(t, KindTemplate, first.Kind)
	assert.Equal(t, "@primary-color-derived-0", first.Name)
	assert.Equal(t, "tint(@primary-color, 20%)", first.Expression)

	last := specs[len(specs)-1]
	assert.Equal(t, "@primary-color-derived-4", last.Name)
	assert.Equal(t, "mix(@primary-color, #fff, 50%)", last.Expression)
	assert.True(t, last.Derived())
}

func TestGenerator_ExpandNamesAreUnique(t *testing.T) {
	g := NewGenerator("iview")
	specs := g.Expand([]string{"@primary-color", "@success-color"}, []string{"@border-color-base"})

	seen := map[string]bool{}
	for _, s := range specs {
		assert.False(t, seen[s.Name], "duplicate %s", s.Name)
		seen[s.Name] = true
	}

	last := specs[len(specs)-1]
	assert.Equal(t, KindSelf, last.Kind)
	assert.False(t, last.Derived())
}

func TestFrameworkTemplates(t *testing.T) {
	assert.Equal(t, ViewDesignTemplates, FrameworkTemplates("iview"))
	assert.Equal(t, ViewDesignTemplates, FrameworkTemplates("View-Design"))
	assert.Nil(t, FrameworkTemplates("ant-design-vue"))
	assert.Equal(t, "template", KindTemplate.String())
}
