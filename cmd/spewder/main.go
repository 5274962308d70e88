package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	spewderslog "github.com/fwojciec/spewder/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// ConfigPaths are YAML files read for flag defaults, in order. Missing
	// files are skipped.
	ConfigPaths []string

	// DBPath is the default crawl history database.
	DBPath string
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPaths: []string{filepath.Join(xdg.ConfigHome, "spewder", "config.yaml")},
		DBPath:      filepath.Join(xdg.DataHome, "spewder", "history.db"),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Workers report progress while the logger writes to the same stream.
	stderr = &lockedWriter{w: stderr}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("spewder"),
		kong.Description("Crawl a website from a seed URL and consolidate its pages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Configuration(YAML, m.ConfigPaths...),
		kong.Vars{"db": m.DBPath},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no URL given. Run 'spewder --help' to see usage")
	}

	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = spewderslog.NewLogger(stderr, cli.Verbose)

	return kongCtx.Run(deps)
}

// lockedWriter serializes writes to w.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
