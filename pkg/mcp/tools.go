package mcp

import "github.com/mark3labs/mcp-go/mcp"

// RegisteredTools returns the definitions of every tool the server adds.
func RegisteredTools() []mcp.Tool {
	return []mcp.Tool{
		resolveVariablesTool(),
		validateColorTool(),
		deriveShadesTool(),
		extractColorsTool(),
		reduceColorsTool(),
		substituteColorsTool(),
	}
}

func resolveVariablesTool() mcp.Tool {
	return mcp.NewTool("resolve_variables",
		mcp.WithDescription("Resolve a flattened LESS variable file to concrete colors. Returns the color mapping and why every other variable was dropped."),
		mcp.WithString("less", mcp.Required(), mcp.Description("Variable definitions with imports already inlined")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func validateColorTool() mcp.Tool {
	return mcp.NewTool("validate_color",
		mcp.WithDescription("Report whether a resolved LESS value counts as a color"),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value such as #fff, rgba(0,0,0,.5) or 12px")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func deriveShadesTool() mcp.Tool {
	return mcp.NewTool("derive_shades",
		mcp.WithDescription("List the derived shade names and expressions generated for theme variables, plus the probe stylesheet that discovers them"),
		mcp.WithArray("variables", mcp.Required(), mcp.Description("Theme variables, e.g. @primary-color"), mcp.WithStringItems()),
		mcp.WithArray("self_variables", mcp.Description("Theme variables without derived shades"), mcp.WithStringItems()),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func extractColorsTool() mcp.Tool {
	return mcp.NewTool("extract_colors",
		mcp.WithDescription("Keep only the color declarations of a stylesheet. Border, outline and background shorthands become -color longhands."),
		mcp.WithString("css", mcp.Required(), mcp.Description("Compiled CSS")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func reduceColorsTool() mcp.Tool {
	return mcp.NewTool("reduce_colors",
		mcp.WithDescription("Remove the color declarations of a stylesheet, keeping border width and style"),
		mcp.WithString("css", mcp.Required(), mcp.Description("Compiled CSS")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func substituteColorsTool() mcp.Tool {
	return mcp.NewTool("substitute_colors",
		mcp.WithDescription("Replace compiled theme colors in CSS with variable names and shade expressions, producing the runtime stylesheet"),
		mcp.WithString("css", mcp.Required(), mcp.Description("Color-only CSS compiled against the probe colors")),
		mcp.WithArray("variables", mcp.Required(), mcp.Description("Theme variables"), mcp.WithStringItems()),
		mcp.WithArray("self_variables", mcp.Description("Theme variables without derived shades"), mcp.WithStringItems()),
		mcp.WithObject("compiled", mcp.Required(), mcp.Description("Symbolic name to the color it compiled to")),
		mcp.WithObject("defaults", mcp.Description("Theme variable to its default color")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
