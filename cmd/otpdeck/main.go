package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/otpdeck/pkg/client"
	"github.com/vanderheijden86/otpdeck/pkg/config"
	"github.com/vanderheijden86/otpdeck/pkg/logging"
	"github.com/vanderheijden86/otpdeck/pkg/metrics"
	"github.com/vanderheijden86/otpdeck/pkg/model"
	"github.com/vanderheijden86/otpdeck/pkg/ui"
	"github.com/vanderheijden86/otpdeck/pkg/version"
	"github.com/vanderheijden86/otpdeck/pkg/watcher"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without os.Exit, so deferred cleanup always runs.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("otpdeck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	help := fs.Bool("help", false, "Show help")
	versionFlag := fs.Bool("version", false, "Show version")
	configFlag := fs.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/otpdeck/config.yaml)")
	serverFlag := fs.String("server", "", "Server base URL (overrides config and "+config.EnvServer+")")
	tabFlag := fs.String("tab", "", "Initial table: own or shared")
	listFlag := fs.Bool("list", false, "Print both code tables as JSON and exit")
	metricsFlag := fs.Bool("metrics", false, "Print timing metrics as JSON on exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *help {
		fmt.Fprintln(stdout, "Usage: otpdeck [options]")
		fmt.Fprintln(stdout, "\nA terminal client for a TOTP server: live codes, QR import, bulk export/delete/share.")
		fs.SetOutput(stdout)
		fs.PrintDefaults()
		return 0
	}

	if *versionFlag {
		fmt.Fprintf(stdout, "otpdeck %s\n", version.Version)
		return 0
	}

	if *tabFlag != "" {
		if _, err := model.ParseTable(*tabFlag); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = config.ConfigPath()
	}
	override := flagOverrides(*serverFlag, *tabFlag)
	cfg, cfgErr := loadConfig(configPath, os.Getenv, override)
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", cfgErr)
	}

	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	defer func() { _ = closeLog() }()
	logger.Info(context.Background(), "starting", "version", version.Version, "server", cfg.Server.BaseURL)

	if *metricsFlag {
		defer func() { _ = writeMetrics(stdout) }()
	}

	c, err := client.New(credentials(cfg), client.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *listFlag {
		if err := writeList(context.Background(), c, stdout); err != nil {
			logger.Warn(context.Background(), "list failed", "err", err)
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(stderr, "Error: otpdeck needs a terminal. Use --list for scripted output.")
		return 1
	}

	var w *watcher.Watcher
	if configPath != "" {
		w, err = watcher.New(configPath, watcher.WithOnError(func(err error) {
			logger.Warn(context.Background(), "config watcher", "err", err)
		}))
		if err == nil {
			if err := w.Start(); err != nil {
				logger.Warn(context.Background(), "config watcher not started", "err", err)
				w = nil
			} else {
				defer w.Stop()
			}
		}
	}

	m := ui.NewModel(ui.Params{
		API:            c,
		Config:         cfg,
		ConfigPath:     configPath,
		ConfigOverride: override,
		Watcher:        w,
		Logger:         logger,
	})
	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running otpdeck: %v\n", err)
		return 1
	}
	return 0
}

// flagOverrides returns the command-line overrides, reapplied after every
// config reload so flags keep precedence over the file.
func flagOverrides(server, tab string) func(*config.Config) {
	return func(c *config.Config) {
		if server != "" {
			c.Server.BaseURL = server
		}
		if tab != "" {
			c.UI.DefaultTab = tab
		}
	}
}

// loadConfig layers file, environment and flags. A broken file yields the
// defaults plus the error.
func loadConfig(path string, getenv func(string) string, override func(*config.Config)) (config.Config, error) {
	cfg := config.DefaultConfig()
	var err error
	if path != "" {
		cfg, err = config.LoadFrom(path)
	}
	cfg.ApplyEnv(getenv)
	if override != nil {
		override(&cfg)
	}
	return cfg, err
}

func credentials(cfg config.Config) client.Credentials {
	return client.Credentials{
		BaseURL:     cfg.Server.BaseURL,
		CookieName:  cfg.Server.SessionCookie.Name,
		CookieValue: cfg.Server.SessionCookie.Value,
	}
}

// listOutput is the --list document.
type listOutput struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Tables      map[string][]model.TotpEntry `json:"tables"`
}

func writeList(ctx context.Context, api ui.API, out io.Writer) error {
	tables, err := api.LoadAll(ctx)
	if err != nil {
		return err
	}
	doc := listOutput{GeneratedAt: time.Now().UTC(), Tables: map[string][]model.TotpEntry{}}
	for _, t := range model.Tables() {
		entries := tables[t]
		if entries == nil {
			entries = []model.TotpEntry{}
		}
		doc.Tables[t.String()] = entries
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func writeMetrics(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(metrics.TakeSnapshot())
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated runs: set OTPDECK_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("OTPDECK_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()
				select {
				case <-runDone:
				case <-timer.C:
					p.Quit()
				}
			}()
		}
	}

	_, err := p.Run()
	return err
}
