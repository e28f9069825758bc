package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/lesstheme/pkg/parser"
	"github.com/gnana997/lesstheme/pkg/util"
)

func setupManagers(t *testing.T) (*parser.ParserManager, *QueryManager) {
	t.Helper()
	pm := parser.NewParserManager(util.Discard())
	qm := NewQueryManager(pm, util.Discard())
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return pm, qm
}

func TestQueryCompilation(t *testing.T) {
	_, qm := setupManagers(t)

	for _, lang := range []parser.Language{parser.LanguageJavaScript, parser.LanguageTypeScript} {
		query, err := qm.GetQuery(lang, QueryTypeStyles)
		require.NoError(t, err, lang.String())
		require.NotNil(t, query)

		again, err := qm.GetQuery(lang, QueryTypeStyles)
		require.NoError(t, err)
		assert.Same(t, query, again, "query should be cached")
	}

	_, err := qm.GetQuery(parser.LanguageUnknown, QueryTypeStyles)
	assert.Error(t, err)
}

func TestStylesQuery(t *testing.T) {
	pm, qm := setupManagers(t)

	source := []byte(`(function(module, exports) {
exports = module.exports = require("css-loader")(false);
exports.push([module.i, ".a{color:red}\n", ""]);
list.push([1, "not css"]);
other.push([module.i, '.b{color:blue}', '']);
})`)

	tree, err := pm.Parse(source, parser.LanguageJavaScript)
	require.NoError(t, err)
	defer tree.Close()

	query, err := qm.GetQuery(parser.LanguageJavaScript, QueryTypeStyles)
	require.NoError(t, err)

	matches, err := qm.ExecuteQuery(tree, query, source)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	css, ok := matches[0].Capture("push.css")
	require.True(t, ok)
	assert.Equal(t, `".a{color:red}\n"`, css.Text)
	assert.Equal(t, css.Text, string(source[css.StartByte:css.EndByte]))

	css, ok = matches[1].Capture("push.css")
	require.True(t, ok)
	assert.Equal(t, `'.b{color:blue}'`, css.Text)
}

func TestParseCaptureName(t *testing.T) {
	category, field := parseCaptureName("push.css")
	assert.Equal(t, "push", category)
	assert.Equal(t, "css", field)

	category, field = parseCaptureName("plain")
	assert.Equal(t, "plain", category)
	assert.Empty(t, field)
}
