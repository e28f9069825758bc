// Package styles holds the tree-sitter patterns that find stylesheet
// strings inside bundled scripts.
package styles

// JSQueries matches the style-loader registration call emitted by
// css-loader:
//
//	exports.push([module.i, ".a{color:red}", ""]);
//
// Captures:
//   - @push.css - the string literal holding the stylesheet
//   - @push.method, @push.module - used by predicates only
const JSQueries = `
(call_expression
  function: (member_expression
    property: (property_identifier) @push.method)
  arguments: (arguments
    .
    (array
      .
      (member_expression
        property: (property_identifier) @push.module)
      .
      (string) @push.css))
  (#eq? @push.method "push")
  (#eq? @push.module "i"))
`

// TSQueries is the TypeScript variant. The node names match the
// JavaScript grammar.
const TSQueries = JSQueries
