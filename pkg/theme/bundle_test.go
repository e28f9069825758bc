package theme

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/asset"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/probe"
	"github.com/gnana997/lesstheme/pkg/shade"
)

func testBundle(stylesheet string) *Bundle {
	specs := shade.NewGenerator("").For(shade.PrimaryColor)
	specs = append(specs, shade.Self("@text-color"))
	result := &probe.Result{Specs: specs, Mapping: palette.Mapping{}}
	return NewBundle(stylesheet, Palette{"@primary-color": "#1890ff", "@text-color": "#333333"}, result)
}

func TestNewBundle(t *testing.T) {
	b := testBundle(".a{color:@primary-color}")

	assert.Equal(t, StorageKey, b.StorageKey)
	assert.Equal(t, Hash(".a{color:@primary-color}"), b.Hash)
	assert.Len(t, b.Hash, 64)
	assert.Equal(t, []string{"@primary-color", "@text-color"}, b.Bases)
	assert.Len(t, b.Classes, 11)
	assert.Equal(t, "@primary-3", b.Classes[probe.ClassName("@primary-3")])
}

func TestBundle_Changed(t *testing.T) {
	a := testBundle(".a{color:@primary-color}")
	same := testBundle(".a{color:@primary-color}")
	other := testBundle(".a{color:@text-color}")

	assert.False(t, a.Changed(nil))
	assert.False(t, a.Changed(same))
	assert.True(t, a.Changed(other))
}

func TestBundle_JSON(t *testing.T) {
	b := testBundle(".a{color:@primary-color}")

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var back Bundle
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *b, back)

	meta, err := b.Metadata()
	require.NoError(t, err)
	assert.NotContains(t, string(meta), "stylesheet")

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(meta, &fields))
	assert.Contains(t, fields, "classes")
	assert.Contains(t, fields, "palette")
	assert.Equal(t, `"theme_color"`, string(fields["storageKey"]))
}

func TestHotPatch(t *testing.T) {
	b := &Bundle{
		Stylesheet: `.a{content:'x\y'}`,
		Palette:    Palette{"@primary-color": "#1890ff"},
		StorageKey: StorageKey,
	}

	got, err := HotPatch(b)
	require.NoError(t, err)
	assert.Equal(t,
		`;(function(){window.__lessContent='.a{content:\'x\\y\'}';window.changeThemeUseLess(JSON.parse(localStorage.getItem('theme_color'))||{"@primary-color":"#1890ff"});})();`+"\n",
		got)
}

func TestPatchHotUpdate(t *testing.T) {
	store := asset.NewMemoryStore(map[string]string{
		"b.hot-update.js": "B",
		"a.hot-update.js": "A",
		"js/app.js":       "X",
	})
	b := testBundle(".a{color:@primary-color}")

	name, err := PatchHotUpdate(store, b)
	require.NoError(t, err)
	assert.Equal(t, "a.hot-update.js", name)

	text, err := store.Text("a.hot-update.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, ";(function(){window.__lessContent='.a{color:@primary-color}'"))
	assert.True(t, strings.HasSuffix(text, "\nA"))

	untouched, err := store.Text("b.hot-update.js")
	require.NoError(t, err)
	assert.Equal(t, "B", untouched)
}

func TestPatchHotUpdate_None(t *testing.T) {
	store := asset.NewMemoryStore(map[string]string{"js/app.js": "X"})

	name, err := PatchHotUpdate(store, testBundle(""))
	require.NoError(t, err)
	assert.Empty(t, name)
}
