package lessc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	_ "embed"
)

//go:embed scripts/less-worker.js
var workerScript []byte

// FindRuntime returns the first JavaScript runtime found on PATH.
func FindRuntime() (string, bool) {
	for _, rt := range []string{"bun", "node"} {
		if p, err := exec.LookPath(rt); err == nil {
			return p, true
		}
	}
	return "", false
}

// Worker compiles by running the embedded less worker script with a
// JavaScript runtime. The `less` package is resolved from Dir's
// node_modules.
type Worker struct {
	// Runtime is the node or bun binary.
	Runtime string

	// Dir is the project root the worker runs in.
	Dir string

	Logger *slog.Logger
}

// NewWorker returns a worker for runtime rooted at dir.
func NewWorker(runtime, dir string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{Runtime: runtime, Dir: dir, Logger: logger}
}

type workerOutput struct {
	CSS   string        `json:"css"`
	Error *CompileError `json:"error"`
}

// Compile implements Compiler. Cancelling ctx kills the worker.
func (w *Worker) Compile(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	tmpFile, err := os.CreateTemp("", "lesstheme-worker-*.js")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(workerScript); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write worker script: %w", err)
	}
	tmpFile.Close()

	input, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, w.Runtime, tmpFile.Name())
	cmd.Stdin = bytes.NewReader(input)
	cmd.Dir = w.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	w.Logger.Debug("running less worker",
		"runtime", filepath.Base(w.Runtime),
		"bytes", len(req.Source),
		"paths", len(req.Paths))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		stderrStr := stderr.String()
		if stderrStr != "" {
			w.Logger.Warn("less worker stderr", "output", stderrStr)
		}
		return "", fmt.Errorf("less worker failed: %w (stderr: %s)", err, stderrStr)
	}

	var out workerOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return "", fmt.Errorf("failed to parse worker output: %w", err)
	}
	if out.Error != nil {
		return "", out.Error
	}

	w.Logger.Debug("less worker complete",
		"css_bytes", len(out.CSS),
		"ms", time.Since(start).Milliseconds())

	return out.CSS, nil
}
