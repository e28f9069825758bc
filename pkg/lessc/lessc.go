// Package lessc invokes the external LESS preprocessor.
//
// The core treats compilation as an opaque oracle: stylesheet text and a
// search-path list go in, compiled CSS or a diagnostic comes out.
package lessc

import (
	"context"
	"errors"
	"fmt"
)

// ErrCompile is wrapped by every preprocessor diagnostic.
var ErrCompile = errors.New("less compile failed")

// Request is one compilation.
type Request struct {
	// Source is the stylesheet text.
	Source string `json:"source"`

	// Paths are searched when resolving imports.
	Paths []string `json:"paths"`

	// GlobalVars are injected as variables before Source, names without
	// the `@` sigil.
	GlobalVars map[string]string `json:"globalVars,omitempty"`

	// ModifyVars are injected after Source, so they override definitions
	// in it. Names are without the `@` sigil.
	ModifyVars map[string]string `json:"modifyVars,omitempty"`
}

// Compiler compiles LESS to CSS.
type Compiler interface {
	Compile(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Compiler.
type Func func(ctx context.Context, req Request) (string, error)

// Compile implements Compiler.
func (f Func) Compile(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// CompileError carries the preprocessor diagnostic.
type CompileError struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (%s:%d:%d)", ErrCompile, e.Message, e.Filename, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", ErrCompile, e.Message)
}

// Unwrap lets errors.Is match ErrCompile.
func (e *CompileError) Unwrap() error {
	return ErrCompile
}
