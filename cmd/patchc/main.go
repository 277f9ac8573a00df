package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/ritzau/patchc/pkg/compile"
	"github.com/ritzau/patchc/pkg/config"
	"github.com/ritzau/patchc/pkg/logging"
	"github.com/ritzau/patchc/pkg/model"
	"github.com/ritzau/patchc/pkg/node"
	"github.com/ritzau/patchc/pkg/output"
	"github.com/ritzau/patchc/pkg/patchfile"
	"github.com/ritzau/patchc/pkg/stdlib"
	"github.com/ritzau/patchc/pkg/watcher"
	"github.com/ritzau/patchc/pkg/web"
	"github.com/spf13/pflag"
)

const usage = `Usage: patchc [flags] <patch.toml|patch.json|patch.hcl>

Compiles a dataflow audio patch to a scripting or systems language program.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f := config.Flags("patchc")
	f.SetOutput(stderr)
	f.Usage = func() {
		fmt.Fprint(stderr, usage)
		f.PrintDefaults()
	}
	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	level, err := cfg.LogLevel()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}

	registry := stdlib.Registry()
	if cfg.ListNodes {
		listNodes(stdout, registry)
		return 0
	}

	var patchPath string
	switch f.NArg() {
	case 0:
		if !cfg.Serve {
			f.Usage()
			return 2
		}
	case 1:
		patchPath = f.Arg(0)
	default:
		fmt.Fprintf(stderr, "Error: expected one patch file, got %d\n", f.NArg())
		return 2
	}

	c := &compiler{cfg: cfg, registry: registry, stdout: stdout, stderr: stderr}

	if cfg.Serve {
		c.server = web.NewServer(registry)
		if patchPath != "" {
			c.compileFile(ctx, patchPath)
			if cfg.Watch {
				go c.watch(ctx, patchPath)
			}
		}
		if err := c.server.Start(ctx, cfg.Port); err != nil {
			logging.Error("compile service stopped", "error", err)
			return 1
		}
		return 0
	}

	status := c.compileFile(ctx, patchPath)
	if !cfg.Watch {
		return status
	}
	c.watch(ctx, patchPath)
	return 0
}

// compiler runs compilations for the command line and watch mode.
type compiler struct {
	cfg      *config.Config
	registry *node.Registry
	server   *web.Server
	stdout   io.Writer
	stderr   io.Writer
}

// compileFile loads, compiles and writes one patch, printing a report.
// It returns the process exit status.
func (c *compiler) compileFile(ctx context.Context, path string) int {
	res, err := c.compilePatch(ctx, path)
	if err != nil {
		color.New(color.FgRed).Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	if c.server != nil {
		if err := c.server.PublishCompile(path, res); err != nil {
			logging.Warn("failed to publish compilation", "error", err)
		}
	}
	output.PrintCompileReport(c.stderr, path, res)
	if !res.OK() {
		return res.Status
	}
	if err := c.writeCode(res.Code); err != nil {
		color.New(color.FgRed).Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *compiler) compilePatch(ctx context.Context, path string) (compile.Result, error) {
	patch, err := patchfile.Load(path)
	if err != nil {
		return compile.Result{}, err
	}
	g, err := patch.Graph(c.registry)
	if err != nil {
		return compile.Result{}, err
	}
	return compile.CompileContext(ctx, g, c.registry, c.cfg.Apply(patch.Settings)), nil
}

func (c *compiler) writeCode(code string) error {
	if c.cfg.Out == "" {
		if c.server != nil {
			return nil
		}
		_, err := fmt.Fprintln(c.stdout, code)
		return err
	}
	if err := os.WriteFile(c.cfg.Out, []byte(code+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logging.Info("wrote generated code", "path", c.cfg.Out, "bytes", len(code)+1)
	return nil
}

func (c *compiler) watch(ctx context.Context, path string) {
	err := watcher.Watch(ctx, 100*time.Millisecond, func([]string) {
		c.compileFile(ctx, path)
	}, path)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("watch stopped", "error", err)
	}
}

func listNodes(w io.Writer, registry *node.Registry) {
	bold := color.New(color.Bold)
	for _, t := range registry.Types() {
		n, err := registry.NewNode(t, t, nil)
		if err != nil {
			continue
		}
		bold.Fprintf(w, "%-8s", t)
		fmt.Fprintf(w, " in: %-28s out: %s\n", portlets(n.Inlets), portlets(n.Outlets))
	}
}

func portlets(ps []model.Portlet) string {
	if len(ps) == 0 {
		return "-"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.ID + ":" + string(p.Kind)
	}
	return strings.Join(parts, " ")
}
