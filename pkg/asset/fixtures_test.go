package asset

import "strings"

// devFragmentA and devFragmentB are css-loader registrations as they
// appear inside the eval strings of a development bundle.
const (
	devFragmentA = `.a{color:red;width:1px}\\n.b{content:\\\"x\\\";margin:0}`
	devFragmentB = `.c{border:1px solid #fff;padding:2px}`
)

func devModule(fragment string) string {
	return `eval("exports = module.exports = __webpack_require__(\"./node_modules/css-loader/lib/css-base.js\")(false);\n// Module\nexports.push([module.i, \"` +
		fragment + `\\n\", \"\"]);\n");`
}

func devBundle(fragments ...string) string {
	var b strings.Builder
	b.WriteString("/******/ (function(modules) {\n/******/ })({\n")
	for i, f := range fragments {
		b.WriteString("/***/ \"./src/")
		b.WriteByte(byte('a' + i))
		b.WriteString(".less\":\n/***/ (function(module, exports, __webpack_require__) {\n\n")
		b.WriteString(devModule(f))
		b.WriteString("\n\n/***/ }),\n")
	}
	b.WriteString("/******/ });\n")
	return b.String()
}
