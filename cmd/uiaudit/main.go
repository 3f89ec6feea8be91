// Package main provides the uiaudit command. It serves a rendered component
// library demo site, visits every example page in a headless browser, takes
// visual snapshots and fails on accessibility violations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/config"
	"github.com/entrhq/uiaudit/pkg/fetch"
	"github.com/entrhq/uiaudit/pkg/logging"
	"github.com/entrhq/uiaudit/pkg/report"
	"github.com/entrhq/uiaudit/pkg/runner"
	"github.com/entrhq/uiaudit/pkg/snapshot"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile   string
	Root         string
	Port         int
	Only         string
	Headless     bool
	Install      bool
	SnapshotMode string
	Verbosity    string
	Timeout      time.Duration
	ShowVersion  bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("uiaudit v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.Root, "root", "", "Directory holding the rendered demo site (overrides $ROOT)")
	flag.IntVar(&cli.Port, "port", 0, "Port to serve the site on (overrides $PORT_NUMBER)")
	flag.StringVar(&cli.Only, "only", "", "Process only this example (overrides $ONLYDOODAD)")
	flag.BoolVar(&cli.Headless, "headless", true, "Run the browser headless")
	flag.BoolVar(&cli.Install, "install", false, "Install the browser before launching it")
	flag.StringVar(&cli.SnapshotMode, "snapshots", "", "Snapshot backend: percy, screenshot or none")
	flag.StringVar(&cli.Verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose or debug")
	flag.DurationVar(&cli.Timeout, "timeout", 30*time.Minute, "Run timeout")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "uiaudit - UI regression harness for component library demo sites\n\n")
		fmt.Fprintf(os.Stderr, "Usage: uiaudit [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Audit every example of the site in ./public\n")
		fmt.Fprintf(os.Stderr, "  uiaudit\n\n")
		fmt.Fprintf(os.Stderr, "  # Audit a single component\n")
		fmt.Fprintf(os.Stderr, "  ONLYDOODAD=Modal uiaudit -root build\n\n")
		fmt.Fprintf(os.Stderr, "  # Under percy, with a config file\n")
		fmt.Fprintf(os.Stderr, "  percy exec -- uiaudit -config uiaudit.yaml\n\n")
	}

	flag.Parse()

	cli.set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { cli.set[f.Name] = true })
	return cli
}

// run executes one harness run
func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Header(fmt.Sprintf("uiaudit v%s", version))

	if err := cfg.Validate(); err != nil {
		return err
	}

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}

	httpClient := fetch.NewClient(logger)
	script, err := audit.LoadScript(ctx, httpClient, cfg.Audit.ScriptPath, cfg.Audit.ScriptURL)
	if err != nil {
		return err
	}

	accessLog := zap.NewNop()
	if cfg.LogLevel() >= logging.LevelDebug {
		if accessLog, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to create access logger: %w", err)
		}
		defer accessLog.Sync() //nolint:errcheck
	}

	manager := browser.NewManager(browser.LaunchOptions{
		Headless: cfg.Browser.Headless,
		Args:     cfg.Browser.Args,
		Timeout:  cfg.Browser.LaunchTimeout,
		Install:  cfg.Browser.Install,
	})

	snapshots := newSnapshotClient(cfg, httpClient, logger)
	harness := runner.New(cfg, runner.Deps{
		Browser:   manager,
		Snapshots: snapshots,
		Audits:    audit.NewAxe(script),
		Log:       logger,
		AccessLog: accessLog,
	})

	logger.Infof("Root: %s", cfg.Root)
	if cfg.Only != "" {
		logger.Infof("Only: %s", cfg.Only)
	}

	summary, runErr := harness.Run(ctx)
	if percy, ok := snapshots.(*snapshot.Percy); ok {
		if err := percy.Disabled(); err != nil {
			summary.AddWarning(fmt.Sprintf("no visual snapshots were taken: %v", err))
		}
	}
	report.Print(logger, summary)

	if cfg.Artifacts.Enabled {
		if err := report.NewWriter(cfg.Artifacts.OutputDir).WriteAll(summary); err != nil {
			logger.Warningf("failed to write artifacts: %v", err)
		} else {
			logger.Verbosef("Artifacts written to %s", cfg.Artifacts.OutputDir)
		}
	}

	return runErr
}

// loadConfig layers the config file, the environment and explicit flags
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cli.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(cli.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cli.set["root"] {
		cfg.Root = cli.Root
	}
	if cli.set["port"] {
		cfg.Port = cli.Port
	}
	if cli.set["only"] {
		cfg.Only = cli.Only
	}
	if cli.set["headless"] {
		cfg.Browser.Headless = cli.Headless
	}
	if cli.set["install"] {
		cfg.Browser.Install = cli.Install
	}
	if cli.set["snapshots"] {
		cfg.Snapshot.Mode = snapshot.Mode(cli.SnapshotMode)
	}
	if cli.set["verbosity"] {
		cfg.Logging.Verbosity = cli.Verbosity
	}

	return cfg, nil
}

// newSnapshotClient returns the snapshot backend selected by cfg
func newSnapshotClient(cfg *config.Config, httpClient *retryablehttp.Client, logger *logging.Logger) snapshot.Client {
	switch cfg.Snapshot.Mode {
	case snapshot.ModePercy:
		return snapshot.NewPercy(cfg.Snapshot.PercyServer, "uiaudit/"+version, httpClient, logger)
	case snapshot.ModeScreenshot:
		return snapshot.NewScreenshots(cfg.Snapshot.OutputDir, logger)
	default:
		return snapshot.Noop{}
	}
}
