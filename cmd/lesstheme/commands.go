package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/gnana997/lesstheme/pkg/mcp"
	"github.com/gnana997/lesstheme/pkg/mcplog"
	"github.com/gnana997/lesstheme/pkg/theme"
	"github.com/gnana997/lesstheme/pkg/watch"
)

// skipConfig replaces the root PersistentPreRunE for commands that run
// without a project.
func skipConfig(*cobra.Command, []string) error { return nil }

func newInitCmd() *cobra.Command {
	var (
		output string
		ui     string
		force  bool
	)
	cmd := &cobra.Command{
		Use:               "init",
		Short:             "Write a starter " + defaultConfigName,
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := writeStarterConfig(output, starterConfig(ui), force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", defaultConfigName, "config file to write")
	cmd.Flags().StringVar(&ui, "ui", "", "UI framework: antd, iview or view-design")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		asJSON   bool
		rejected bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the concrete color of every variable in the variable file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(sessionOptions{})
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.builder.Resolve()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			for _, name := range res.Mapping.Names() {
				fmt.Fprintf(out, "%s: %s;\n", name, res.Mapping[name])
			}
			if rejected {
				for _, o := range res.Rejected() {
					fmt.Fprintf(out, "// %s: %s (%s)\n", o.Name, o.Raw, o.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full resolution as JSON")
	cmd.Flags().BoolVar(&rejected, "rejected", false, "also list dropped variables as comments")
	return cmd
}

func newProbeCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Write the variable lines the LESS loader appends to every module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(sessionOptions{compiler: true})
			if err != nil {
				return err
			}
			defer s.Close()

			suffix, err := s.builder.LoaderSuffix(cmd.Context())
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, suffix+"\n")
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func newBuildCmd(a *app) *cobra.Command {
	var (
		output     string
		stylesheet string
		metadata   string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Strip theme colors from the built assets and write the theme bundle",
		Long: `build rewrites the artifacts under assets.dir in place, removing every
color declaration, and writes the bundle the runtime switcher loads: the
symbolic stylesheet, the default palette and the probe class table.

The app must have been built with the output of "lesstheme probe".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(sessionOptions{compiler: true, assets: true})
			if err != nil {
				return err
			}
			defer s.Close()

			bundle, err := s.builder.Build(cmd.Context())
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode bundle: %w", err)
			}
			if err := writeOutput(cmd, output, string(data)+"\n"); err != nil {
				return err
			}
			if stylesheet != "" {
				if err := writeOutput(cmd, stylesheet, bundle.Stylesheet); err != nil {
					return err
				}
			}
			if metadata != "" {
				meta, err := bundle.Metadata()
				if err != nil {
					return fmt.Errorf("failed to encode bundle metadata: %w", err)
				}
				if err := writeOutput(cmd, metadata, string(meta)+"\n"); err != nil {
					return err
				}
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, hash %s)\n", output, len(bundle.Stylesheet), bundle.Hash[:12])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "lesstheme.json", "bundle file to write, empty for stdout")
	cmd.Flags().StringVar(&stylesheet, "stylesheet", "", "also write the symbolic stylesheet alone")
	cmd.Flags().StringVar(&metadata, "metadata", "", "also write the bundle without its stylesheet")
	return cmd
}

func newCompileCmd(a *app) *cobra.Command {
	var (
		bundlePath  string
		palettePath string
		output      string
		set         map[string]string
		verify      bool
	)
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Render a theme bundle to static CSS for a fixed palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bundle, err := readBundle(bundlePath)
			if err != nil {
				return err
			}

			overrides := theme.Palette{}
			if palettePath != "" {
				data, err := os.ReadFile(palettePath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &overrides); err != nil {
					return fmt.Errorf("failed to decode palette %s: %w", palettePath, err)
				}
			}
			overrides = overrides.Merge(set)

			s, err := a.openSession(sessionOptions{compiler: true})
			if err != nil {
				return err
			}
			defer s.Close()

			_, framework, _, err := s.builder.Inline()
			if err != nil {
				return err
			}
			pc := &theme.Precompiler{
				Compiler:    s.builder.Compiler,
				Framework:   framework,
				SearchPaths: s.builder.SearchPaths(),
			}
			css, err := pc.Compile(cmd.Context(), bundle, overrides)
			if err != nil {
				return err
			}

			if verify {
				want := bundle.Palette.Merge(overrides)
				got := theme.RederivePalette(css, bundle)
				var mismatched []string
				for name, color := range got {
					if want[name] != color {
						mismatched = append(mismatched, name)
					}
				}
				sort.Strings(mismatched)
				for _, name := range mismatched {
					a.logger.Warn("compiled color differs from palette", "name", name, "want", want[name], "got", got[name])
				}
			}
			return writeOutput(cmd, output, css)
		},
	}
	cmd.Flags().StringVarP(&bundlePath, "bundle", "b", "lesstheme.json", "bundle written by build")
	cmd.Flags().StringVarP(&palettePath, "palette", "p", "", "JSON object of variable to color")
	cmd.Flags().StringToStringVar(&set, "set", nil, "override one variable, e.g. --set @primary-color=#f5222d")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	cmd.Flags().BoolVar(&verify, "verify", false, "warn when the compiled theme colors differ from the palette")
	return cmd
}

func readBundle(path string) (*theme.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle: %w", err)
	}
	var b theme.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle %s: %w", path, err)
	}
	return &b, nil
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		output   string
		debounce int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rewrite the loader variables whenever the variable files change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(sessionOptions{compiler: true})
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			suffix, err := s.builder.LoaderSuffix(ctx)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, output, suffix+"\n"); err != nil {
				return err
			}

			w, err := watch.New(s.builder, func(p *theme.Prepared) {
				if err := writeOutput(cmd, output, p.Probe.LoaderSuffix()+"\n"); err != nil {
					a.logger.Error("failed to write loader variables", "error", err)
				}
			}, watch.Options{DebounceMs: debounce, Cache: s.cache}, a.logger)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}

			stats := w.GetStats()
			a.logger.Info("watching variable files", "files", stats.Files)
			<-ctx.Done()
			return w.Stop()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "lesstheme.vars.less", "loader variable file to keep current")
	cmd.Flags().IntVar(&debounce, "debounce", watch.DefaultDebounceMs, "quiet period in milliseconds")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the theme tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			callLog, err := mcplog.NewLogger(a.cfg.MCPLog)
			if err != nil {
				return err
			}
			defer callLog.Close()

			srv, err := mcpserver.NewServer(mcpserver.Options{
				UI:                  a.cfg.UI,
				DerivedVars:         a.cfg.DerivedVars,
				CustomColorPatterns: a.cfg.CustomColorPatterns,
			}, callLog, a.logger)
			if err != nil {
				return err
			}
			return srv.ServeStdio()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lesstheme %s\n", version)
		},
	}
}
