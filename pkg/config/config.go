// Package config holds the harness configuration: a YAML file layered with
// the ROOT, PORT_NUMBER and ONLYDOODAD environment variables and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/logging"
	"github.com/entrhq/uiaudit/pkg/snapshot"
	"github.com/entrhq/uiaudit/pkg/strategy"
)

// Environment variables read by ApplyEnv.
const (
	EnvRoot = "ROOT"
	EnvPort = "PORT_NUMBER"
	EnvOnly = "ONLYDOODAD"
)

const (
	defaultRoot = "public"
	defaultPort = 8000
)

// Config represents the configuration of one harness run
type Config struct {
	// Root is the directory holding the rendered demo site
	Root string `yaml:"root" json:"root"`

	// Port the static server listens on; 0 picks a free port
	Port int `yaml:"port" json:"port"`

	// Only selects a single example by name; "", "default" and "all" select everything
	Only string `yaml:"only" json:"only"`

	// Exclude drops examples whose names match any of these glob patterns
	Exclude []string `yaml:"exclude" json:"exclude"`

	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Readiness tuning for strategies
	HeadingPrefix  string        `yaml:"heading_prefix" json:"heading_prefix"`
	HeadingTimeout time.Duration `yaml:"heading_timeout" json:"heading_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay" json:"settle_delay"`

	// Accessibility rules suppressed per example name, and for the index page
	SkipRules      audit.RuleSkipMap `yaml:"skip_rules" json:"skip_rules"`
	IndexSkipRules []string          `yaml:"index_skip_rules" json:"index_skip_rules"`

	// Strategy overrides layered over the built-in registry
	Strategies      map[string]strategy.Kind `yaml:"strategies" json:"strategies"`
	UsageStrategies map[string]strategy.Kind `yaml:"usage_strategies" json:"usage_strategies"`

	Snapshot  SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Audit     AuditConfig    `yaml:"audit" json:"audit"`
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`
	Logging   LoggingConfig  `yaml:"logging" json:"logging"`
}

// BrowserConfig defines how the browser is launched
type BrowserConfig struct {
	Headless      bool          `yaml:"headless" json:"headless"`
	Args          []string      `yaml:"args" json:"args"`
	LaunchTimeout time.Duration `yaml:"launch_timeout" json:"launch_timeout"`
	ReducedMotion bool          `yaml:"reduced_motion" json:"reduced_motion"`

	// Install downloads the browser before launching
	Install bool `yaml:"install" json:"install"`
}

// SnapshotConfig selects and configures the snapshot backend
type SnapshotConfig struct {
	Mode        snapshot.Mode `yaml:"mode" json:"mode"`
	PercyServer string        `yaml:"percy_server" json:"percy_server"`
	OutputDir   string        `yaml:"output_dir" json:"output_dir"`
}

// AuditConfig locates the axe-core script injected into pages
type AuditConfig struct {
	ScriptPath string `yaml:"script_path" json:"script_path"`
	ScriptURL  string `yaml:"script_url" json:"script_url"`
}

// ArtifactConfig defines run report generation
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// SetupError reports a run that cannot start because its inputs are missing.
type SetupError struct {
	Path   string
	Reason string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("Root was specified as %s, but %s.", e.Path, e.Reason)
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() *Config {
	return &Config{
		Root: defaultRoot,
		Port: defaultPort,
		Browser: BrowserConfig{
			Headless:      true,
			Args:          DefaultBrowserArgs(runtime.GOOS),
			LaunchTimeout: 10 * time.Second,
			ReducedMotion: true,
		},
		HeadingPrefix:  strategy.DefaultSettings().HeadingPrefix,
		HeadingTimeout: strategy.DefaultSettings().HeadingTimeout,
		SettleDelay:    strategy.DefaultSettings().SettleDelay,
		SkipRules:      audit.DefaultSkipRules(),
		IndexSkipRules: audit.DefaultIndexSkipRules(),
		Snapshot: SnapshotConfig{
			Mode:        snapshot.ModePercy,
			PercyServer: snapshot.DefaultPercyServer,
			OutputDir:   ".uiaudit/snapshots",
		},
		Audit: AuditConfig{
			ScriptURL: audit.DefaultAxeScriptURL,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".uiaudit/artifacts",
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// DefaultBrowserArgs returns the launch arguments for goos. Chromium runs
// single-process everywhere except Windows, where that flag crashes it.
func DefaultBrowserArgs(goos string) []string {
	if goos == "windows" {
		return []string{}
	}
	return []string{"--single-process"}
}

// Load reads a YAML file over the defaults. Maps such as skip_rules are
// merged into the defaults, lists replace them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides the configuration from the environment. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if root, ok := lookup(EnvRoot); ok && root != "" {
		c.Root = root
	}

	if port, ok := lookup(EnvPort); ok && port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, port, err)
		}
		c.Port = n
	}

	if only, ok := lookup(EnvOnly); ok {
		c.Only = only
	}
	return nil
}

// Validate validates the configuration. Problems with the site root are
// reported as *SetupError so no browser work starts.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Root)
	if err != nil || !info.IsDir() {
		return &SetupError{Path: c.Root, Reason: "that path does not exist"}
	}
	if _, err := os.Stat(filepath.Join(c.Root, "index.html")); err != nil {
		return &SetupError{Path: c.Root, Reason: "does not contain an index.html"}
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.HeadingTimeout < 0 {
		return fmt.Errorf("heading_timeout cannot be negative")
	}

	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay cannot be negative")
	}

	if c.Browser.LaunchTimeout < 0 {
		return fmt.Errorf("browser launch_timeout cannot be negative")
	}

	if err := validateStrategies(c.Strategies, false); err != nil {
		return err
	}
	if err := validateStrategies(c.UsageStrategies, true); err != nil {
		return err
	}

	switch c.Snapshot.Mode {
	case snapshot.ModePercy, snapshot.ModeScreenshot, snapshot.ModeNone:
	case "":
		c.Snapshot.Mode = snapshot.ModeNone
	default:
		return fmt.Errorf("invalid snapshot mode: %s (must be 'percy', 'screenshot' or 'none')", c.Snapshot.Mode)
	}

	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// validateStrategies rejects overrides naming a kind built for the other
// listing: component pages and usage-example pages share no strategies.
func validateStrategies(overrides map[string]strategy.Kind, usage bool) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		kind := overrides[name]
		if kind.Usage() == usage {
			continue
		}
		if usage {
			return fmt.Errorf("usage_strategies: %s uses %s, which processes component pages", name, kind)
		}
		return fmt.Errorf("strategies: %s uses %s, which processes usage examples", name, kind)
	}
	return nil
}

// LogLevel returns the configured verbosity as a logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Verbosity)
}

// Registry builds the strategy registry with this configuration's overrides.
func (c *Config) Registry() *strategy.Registry {
	return strategy.DefaultRegistry().WithOverrides(c.Strategies, c.UsageStrategies)
}

// StrategySettings returns the readiness settings for strategies.
func (c *Config) StrategySettings() strategy.Settings {
	return strategy.Settings{
		HeadingPrefix:  c.HeadingPrefix,
		HeadingTimeout: c.HeadingTimeout,
		SettleDelay:    c.SettleDelay,
	}
}
