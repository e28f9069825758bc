package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// serverName is the key agents list the MCP server under.
const serverName = "lesstheme"

type agentKind int

const (
	// agentCLI agents register servers through their own `mcp add`.
	agentCLI agentKind = iota
	// agentFile agents read a JSON file we edit directly.
	agentFile
)

// agent describes how one coding agent finds its MCP servers.
type agent struct {
	id   string
	name string
	kind agentKind

	binary string // agentCLI
	scoped bool   // agentCLI: asks for project or user scope

	markers    []string      // agentFile: directories that show the agent is in use
	configPath func() string // agentFile
	serversKey string        // agentFile: "servers" for VS Code, "mcpServers" elsewhere
	extra      map[string]string
}

var agents = []agent{
	{id: "claude_code", name: "Claude Code", kind: agentCLI, binary: "claude", scoped: true},
	{id: "openai_codex", name: "OpenAI Codex", kind: agentCLI, binary: "codex", scoped: true},
	{
		id: "vscode_copilot", name: "VS Code Copilot", kind: agentFile,
		markers:    []string{".vscode"},
		configPath: func() string { return filepath.Join(".vscode", "mcp.json") },
		serversKey: "servers",
		extra:      map[string]string{"type": "stdio"},
	},
	{
		id: "cursor", name: "Cursor", kind: agentFile,
		markers:    []string{".cursor"},
		configPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		serversKey: "mcpServers",
	},
	{
		id: "claude_desktop", name: "Claude Desktop", kind: agentFile,
		configPath: claudeDesktopConfigPath,
		serversKey: "mcpServers",
	},
}

func claudeDesktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// setupEnv is the part of the machine setup touches. Tests swap it.
type setupEnv struct {
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
	run      func(out io.Writer, name string, args ...string) error
}

func systemEnv() setupEnv {
	return setupEnv{
		lookPath: exec.LookPath,
		stat:     os.Stat,
		run: func(out io.Writer, name string, args ...string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdout = out
			cmd.Stderr = out
			return cmd.Run()
		},
	}
}

// found is an agent present on this machine.
type found struct {
	agent      agent
	config     string // agentFile only
	configured bool
}

func (env setupEnv) detect() []found {
	var out []found
	for _, a := range agents {
		switch a.kind {
		case agentCLI:
			if _, err := env.lookPath(a.binary); err == nil {
				out = append(out, found{agent: a, configured: fileListsServer(".mcp.json", "mcpServers")})
			}
		case agentFile:
			if path, ok := env.locate(a); ok {
				out = append(out, found{agent: a, config: path, configured: fileListsServer(path, a.serversKey)})
			}
		}
	}
	return out
}

// locate returns the config path of a file agent that is in use. Agents
// without markers count as present when the config directory exists.
func (env setupEnv) locate(a agent) (string, bool) {
	if len(a.markers) == 0 {
		path := a.configPath()
		_, err := env.stat(filepath.Dir(path))
		return path, err == nil
	}
	for _, m := range a.markers {
		if _, err := env.stat(m); err == nil {
			return a.configPath(), true
		}
	}
	return "", false
}

func fileListsServer(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var config map[string]any
	if json.Unmarshal(data, &config) != nil {
		return false
	}
	servers, _ := config[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// serveArgs is the command line an agent starts the server with.
func serveArgs(configFile string) []string {
	args := []string{"serve"}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}
	return args
}

// mergeServerEntry adds the server under serversKey of existing (which may
// be empty) and returns the merged JSON. It returns nil, nil when the
// server is already there.
func mergeServerEntry(existing []byte, serversKey, configFile string, extra map[string]string) ([]byte, error) {
	config := make(map[string]any)
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &config); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	servers, ok := config[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}

	entry := map[string]any{"command": serverName, "args": serveArgs(configFile)}
	for k, v := range extra {
		entry[k] = v
	}
	servers[serverName] = entry
	config[serversKey] = servers

	out, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// writeServerEntry merges the server into the JSON file at path.
func writeServerEntry(a agent, path, configFile string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	merged, err := mergeServerEntry(existing, a.serversKey, configFile, a.extra)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(path, merged, 0644)
}

// addCommand is the `<agent> mcp add` invocation for a CLI agent.
func addCommand(a agent, scope, configFile string) []string {
	args := []string{"mcp", "add"}
	if scope != "" {
		args = append(args, "--scope", scope)
	}
	args = append(args, serverName, "--", serverName)
	return append(args, serveArgs(configFile)...)
}

// prompter reads answers line by line from one buffered reader.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(r io.Reader, w io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(r), out: w}
}

// line returns the next trimmed answer and false at end of input.
func (p *prompter) line() (string, bool) {
	s, err := p.in.ReadString('\n')
	if err != nil && s == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// confirm asks a yes/no question. Empty input and end of input mean yes.
func (p *prompter) confirm(question string) bool {
	fmt.Fprintf(p.out, "%s [Y/n] ", question)
	answer, ok := p.line()
	if !ok {
		return true
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true
	}
	return false
}

// scope returns "project", "user" or "" to skip.
func (p *prompter) scope(agentName string) string {
	fmt.Fprintf(p.out, "\n%s: add the %s MCP server?\n", agentName, serverName)
	fmt.Fprintln(p.out, "  [1] Project scope (shared with team)")
	fmt.Fprintln(p.out, "  [2] User scope (personal, global)")
	fmt.Fprintln(p.out, "  [3] Skip")
	fmt.Fprint(p.out, "  > ")
	answer, ok := p.line()
	if !ok {
		return "project"
	}
	switch answer {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

type setupOptions struct {
	auto       bool
	configFile string
}

func newSetupCmd(a *app) *cobra.Command {
	var opts setupOptions
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with the AI agents found on this machine",
		Args:  cobra.NoArgs,
		// Setup only edits agent configs; a missing project config is fine.
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configFile = a.configFile
			if opts.configFile != "" {
				abs, err := filepath.Abs(opts.configFile)
				if err != nil {
					return err
				}
				opts.configFile = abs
			}
			return runSetup(systemEnv(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.auto, "auto", false, "configure every detected agent without prompting")
	return cmd
}

// runSetup registers the server with every detected agent. A failing
// agent is reported and the rest are still configured.
func runSetup(env setupEnv, r io.Reader, w io.Writer, opts setupOptions) error {
	agentsFound := env.detect()
	if len(agentsFound) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return nil
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, f := range agentsFound {
		if f.configured {
			fmt.Fprintf(w, "  * %s (already configured)\n", f.agent.name)
		} else {
			fmt.Fprintf(w, "  * %s\n", f.agent.name)
		}
	}
	fmt.Fprintln(w)

	p := newPrompter(r, w)
	if !opts.auto && !p.confirm("Configure agents?") {
		return nil
	}

	var failed int
	for _, f := range agentsFound {
		if f.configured {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", f.agent.name)
			continue
		}
		if err := configure(env, p, w, f, opts); err != nil {
			fmt.Fprintf(w, "  ! %s: failed: %v\n", f.agent.name, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d agent(s) could not be configured", failed)
	}
	return nil
}

func configure(env setupEnv, p *prompter, w io.Writer, f found, opts setupOptions) error {
	a := f.agent
	switch a.kind {
	case agentCLI:
		scope := "project"
		if !opts.auto && a.scoped {
			if scope = p.scope(a.name); scope == "" {
				fmt.Fprintln(w, "  skipped")
				return nil
			}
		}
		if err := env.run(w, a.binary, addCommand(a, scope, opts.configFile)...); err != nil {
			return err
		}
		fmt.Fprintf(w, "  + %s configured (scope: %s)\n", a.name, scope)

	case agentFile:
		if !opts.auto && !p.confirm(fmt.Sprintf("\n%s: add to %s?", a.name, f.config)) {
			fmt.Fprintln(w, "  skipped")
			return nil
		}
		if err := writeServerEntry(a, f.config, opts.configFile); err != nil {
			return err
		}
		fmt.Fprintf(w, "  + %s configured (%s)\n", a.name, f.config)
	}
	return nil
}
