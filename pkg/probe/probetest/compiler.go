// Package probetest provides an in-process stand-in for the LESS
// preprocessor. It understands variable lines, probe rules and the color
// functions the shade generator emits, which is enough to run probe
// passes in tests without node.
package probetest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gnana997/lesstheme/pkg/lessc"
)

var (
	variableLine = regexp.MustCompile(`(?m)^(@[\w-]+)\s*:\s*([^;]+);`)
	ruleBlock    = regexp.MustCompile(`(?m)^\.([\w-]+)\s*\{\s*color\s*:\s*(.+?);\s*\}\s*$`)
	paletteCall  = regexp.MustCompile("^color\\(~`colorPalette\\(\"@\\{([\\w-]+)\\}\", (\\d+)\\)`\\)$")
	mixCall      = regexp.MustCompile(`^(tint|shade|fade)\((@[\w-]+|#[0-9a-fA-F]{6}),\s*(\d+)%\)$`)
)

// Compiler evaluates probe stylesheets. The zero value is ready to use.
type Compiler struct {
	// Calls counts Compile invocations.
	Calls int

	// Drop names rules that are left out of the output.
	Drop map[string]bool
}

var _ lessc.Compiler = (*Compiler)(nil)

// Compile implements lessc.Compiler.
func (c *Compiler) Compile(ctx context.Context, req lessc.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.Calls++

	vars := make(map[string]string)
	for k, v := range req.GlobalVars {
		vars["@"+strings.TrimPrefix(k, "@")] = v
	}
	for _, m := range variableLine.FindAllStringSubmatch(req.Source, -1) {
		vars[m[1]] = strings.TrimSpace(m[2])
	}
	for k, v := range req.ModifyVars {
		vars["@"+strings.TrimPrefix(k, "@")] = v
	}

	var b strings.Builder
	for _, m := range ruleBlock.FindAllStringSubmatch(req.Source, -1) {
		if c.Drop[m[1]] {
			continue
		}
		color, err := eval(strings.TrimSpace(m[2]), vars, 0)
		if err != nil {
			return "", &lessc.CompileError{Message: err.Error(), Filename: "input"}
		}
		fmt.Fprintf(&b, ".%s {\n  color: %s;\n}\n", m[1], color)
	}
	return b.String(), nil
}

func eval(expr string, vars map[string]string, depth int) (string, error) {
	if depth > len(vars)+1 {
		return "", fmt.Errorf("recursive variable definition for %s", expr)
	}

	if strings.HasPrefix(expr, "@") {
		v, ok := vars[expr]
		if !ok {
			return "", fmt.Errorf("variable %s is undefined", expr)
		}
		return eval(v, vars, depth+1)
	}

	if m := paletteCall.FindStringSubmatch(expr); m != nil {
		base, err := eval("@"+m[1], vars, depth+1)
		if err != nil {
			return "", err
		}
		n, _ := strconv.Atoi(m[2])
		return Level(base, n)
	}

	if m := mixCall.FindStringSubmatch(expr); m != nil {
		base, err := eval(m[2], vars, depth+1)
		if err != nil {
			return "", err
		}
		weight, _ := strconv.Atoi(m[3])
		return mix(m[1], base, float64(weight)/100)
	}

	if _, err := colorful.Hex(expr); err == nil {
		return strings.ToLower(expr), nil
	}
	return "", fmt.Errorf("cannot evaluate %q", expr)
}

// Level approximates colorPalette: levels below 6 blend toward white,
// levels above toward black, 15% per step.
func Level(hex string, n int) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", err
	}
	switch {
	case n < 6:
		return c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, float64(6-n)*0.15).Clamped().Hex(), nil
	case n > 6:
		return c.BlendRgb(colorful.Color{}, float64(n-6)*0.15).Clamped().Hex(), nil
	}
	return c.Hex(), nil
}

func mix(fn, hex string, weight float64) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", err
	}
	switch fn {
	case "tint":
		return c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, weight).Clamped().Hex(), nil
	case "shade":
		return c.BlendRgb(colorful.Color{}, weight).Clamped().Hex(), nil
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(weight, 'f', -1, 64)), nil
}
