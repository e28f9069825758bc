package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/lesstheme/pkg/cssrule"
	"github.com/gnana997/lesstheme/pkg/palette"
	"github.com/gnana997/lesstheme/pkg/probe"
	"github.com/gnana997/lesstheme/pkg/shade"
	"github.com/gnana997/lesstheme/pkg/theme"
)

// outcomeJSON is one resolved or rejected variable.
type outcomeJSON struct {
	Name     string `json:"name"`
	Raw      string `json:"raw"`
	Color    string `json:"color,omitempty"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type resolveResponse struct {
	Mapping  palette.Mapping `json:"mapping"`
	Outcomes []outcomeJSON   `json:"outcomes"`
	Skipped  []int           `json:"skipped_lines,omitempty"`
}

func (s *Server) handleResolveVariables(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("less")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.resolver.Resolve(text)
	resp := resolveResponse{
		Mapping:  res.Mapping,
		Outcomes: make([]outcomeJSON, 0, len(res.Outcomes)),
		Skipped:  res.Skipped,
	}
	for _, o := range res.Outcomes {
		resp.Outcomes = append(resp.Outcomes, outcomeJSON{
			Name:     o.Name,
			Raw:      o.Raw,
			Color:    o.Color,
			Accepted: o.Accepted,
			Reason:   string(o.Reason),
		})
	}
	return jsonResult(resp)
}

type validateResponse struct {
	Value string `json:"value"`
	Color bool   `json:"color"`
	Hex   string `json:"hex,omitempty"`
}

func (s *Server) handleValidateColor(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := validateResponse{Value: value, Color: s.validator.IsColor(value)}
	if hex, ok := cssrule.NormalizeHex(value); ok {
		resp.Hex = hex
	}
	return jsonResult(resp)
}

type specJSON struct {
	Name       string `json:"name"`
	Base       string `json:"base"`
	Kind       string `json:"kind"`
	Expression string `json:"expression"`
}

type deriveResponse struct {
	Specs      []specJSON `json:"specs"`
	Stylesheet string     `json:"probe_stylesheet"`
}

func (s *Server) handleDeriveShades(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	specs, err := s.expand(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := deriveResponse{
		Specs:      make([]specJSON, 0, len(specs)),
		Stylesheet: probe.Stylesheet(specs),
	}
	for _, sp := range specs {
		resp.Specs = append(resp.Specs, specJSON{
			Name:       sp.Name,
			Base:       sp.Base,
			Kind:       sp.Kind.String(),
			Expression: sp.Expression,
		})
	}
	return jsonResult(resp)
}

type cssResponse struct {
	CSS string `json:"css"`
	// ColorDecls counts the color declarations of the input.
	ColorDecls int `json:"color_declarations"`
	Skipped    int `json:"skipped,omitempty"`
}

func (s *Server) handleExtractColors(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.transformCSS(req, cssrule.Extract)
}

func (s *Server) handleReduceColors(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.transformCSS(req, cssrule.Reduce)
}

func (s *Server) transformCSS(req mcp.CallToolRequest, transform func(*cssrule.Sheet) *cssrule.Sheet) (*mcp.CallToolResult, error) {
	css, err := req.RequireString("css")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sheet, err := cssrule.Parse(css)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse css: %v", err)), nil
	}
	return jsonResult(cssResponse{
		CSS:        transform(sheet).String(),
		ColorDecls: cssrule.CountColorDecls(sheet),
		Skipped:    sheet.Skipped,
	})
}

type substituteResponse struct {
	Stylesheet string        `json:"stylesheet"`
	Palette    theme.Palette `json:"palette"`
	Hash       string        `json:"hash"`
}

func (s *Server) handleSubstituteColors(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	css, err := req.RequireString("css")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	specs, err := s.expand(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	compiled, err := stringMap(req, "compiled")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(compiled) == 0 {
		return mcp.NewToolResultError("compiled must map at least one name to a color"), nil
	}
	defaults, err := stringMap(req, "defaults")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := &probe.Result{Specs: specs, Mapping: compiled}
	out, pal := theme.Substitute(css, result, defaults)
	stylesheet := theme.Minify(out)
	return jsonResult(substituteResponse{
		Stylesheet: stylesheet,
		Palette:    pal,
		Hash:       theme.Hash(stylesheet),
	})
}

// expand reads the variables and self_variables arguments and returns
// their specs.
func (s *Server) expand(req mcp.CallToolRequest) ([]shade.Spec, error) {
	vars, err := req.RequireStringSlice("variables")
	if err != nil {
		return nil, err
	}
	self := req.GetStringSlice("self_variables", nil)
	if len(vars)+len(self) == 0 {
		return nil, fmt.Errorf("at least one variable is required")
	}
	for _, v := range append(append([]string{}, vars...), self...) {
		if len(v) < 2 || v[0] != '@' {
			return nil, fmt.Errorf("variable %q must start with @", v)
		}
	}
	return s.generator.Expand(vars, self), nil
}

// stringMap reads an optional object argument whose values are strings.
func stringMap(req mcp.CallToolRequest, key string) (palette.Mapping, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return palette.Mapping{}, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", key)
	}
	out := make(palette.Mapping, len(obj))
	for k, v := range obj {
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s.%s must be a string", key, k)
		}
		out[k] = str
	}
	return out, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
