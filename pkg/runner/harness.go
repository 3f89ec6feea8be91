package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/config"
	"github.com/entrhq/uiaudit/pkg/discovery"
	"github.com/entrhq/uiaudit/pkg/logging"
	"github.com/entrhq/uiaudit/pkg/report"
	"github.com/entrhq/uiaudit/pkg/server"
	"github.com/entrhq/uiaudit/pkg/snapshot"
	"github.com/entrhq/uiaudit/pkg/strategy"
)

// Suite names, as they appear in logs and reports.
const (
	SuiteIndex         = "index view"
	SuiteComponents    = "components"
	SuiteUsageExamples = "usage examples"
)

const (
	selectorMainContent = "#maincontent"
	mainContentTimeout  = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
)

// Browser launches the browser and opens pages. *browser.Manager satisfies it.
type Browser interface {
	browser.Launcher
	Initialize() error
	Shutdown() error
}

// Deps are the external clients a harness drives.
type Deps struct {
	Browser   Browser
	Snapshots snapshot.Client
	Audits    audit.Client
	Log       *logging.Logger

	// AccessLog receives the static server's request log; nil discards it
	AccessLog *zap.Logger
}

// Harness runs every suite of a configuration.
type Harness struct {
	cfg        *config.Config
	deps       Deps
	registry   *strategy.Registry
	aggregator *audit.Aggregator
	seq        Sequencer
}

// New creates a harness for cfg.
func New(cfg *config.Config, deps Deps) *Harness {
	if deps.Log == nil {
		deps.Log = logging.NewLogger(logging.LevelNormal)
	}
	if deps.Snapshots == nil {
		deps.Snapshots = snapshot.Noop{}
	}

	return &Harness{
		cfg:        cfg,
		deps:       deps,
		registry:   cfg.Registry(),
		aggregator: audit.NewAggregator(deps.Log),
	}
}

// suite is one listing of example links on the index page.
type suite struct {
	name   string
	marker string
	usage  bool
}

var linkSuites = []suite{
	{name: SuiteComponents, marker: discovery.MarkerComponent},
	{name: SuiteUsageExamples, marker: discovery.MarkerUsageExample, usage: true},
}

func (s suite) target(l discovery.Link) strategy.Target {
	t := strategy.Target{Name: l.Name, Location: l.Location}
	if s.usage {
		t.TestName = strategy.NormalizeTestName(l.Name)
	}
	return t
}

// key is the name a selection is matched against.
func (s suite) key(t strategy.Target) string {
	if s.usage {
		return t.TestName
	}
	return t.Name
}

func (s suite) kind(r *strategy.Registry, t strategy.Target) strategy.Kind {
	if s.usage {
		return r.ResolveUsage(t.TestName)
	}
	return r.Resolve(t.Name)
}

func (s suite) announce(t strategy.Target) string {
	if s.usage {
		return "Testing Usage Example " + t.TestName
	}
	return "Testing " + t.Name
}

// Run validates the setup, serves the site and runs the suites in order:
// the index view (only when no single example is selected), components and
// usage examples. The first failure ends the run. The returned summary is
// always non-nil.
func (h *Harness) Run(ctx context.Context) (*report.Summary, error) {
	summary := report.NewSummary(h.cfg.Only)
	err := h.run(ctx, summary)
	summary.Finish(err)
	return summary, err
}

func (h *Harness) run(ctx context.Context, summary *report.Summary) error {
	if err := h.cfg.Validate(); err != nil {
		return err
	}

	filter, err := NewSelectionFilter(h.cfg.Only, h.cfg.Exclude)
	if err != nil {
		return err
	}

	srv := server.New(h.cfg.Root, h.cfg.Port, h.deps.AccessLog)
	baseURL, err := srv.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.deps.Log.Warningf("%v", err)
		}
	}()
	summary.BaseURL = baseURL
	h.deps.Log.Verbosef("Serving %s at %s", h.cfg.Root, baseURL)

	if err := h.deps.Browser.Initialize(); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := h.deps.Browser.Shutdown(); err != nil {
			h.deps.Log.Warningf("%v", err)
		}
	}()

	if filter.All() {
		if err := h.runIndex(ctx, baseURL, summary); err != nil {
			return err
		}
	}

	for _, s := range linkSuites {
		if err := h.runSuite(ctx, s, baseURL, filter, summary); err != nil {
			return err
		}
	}
	return nil
}

// runIndex snapshots and audits the index page itself.
func (h *Harness) runIndex(ctx context.Context, baseURL string, summary *report.Summary) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run canceled before %s: %w", SuiteIndex, err)
	}

	h.deps.Log.Section(SuiteIndex)
	page, err := h.openPage(baseURL)
	if err != nil {
		return fmt.Errorf("%s: %w", SuiteIndex, err)
	}
	defer h.closePage(page)

	record := summary.AddSuite(SuiteIndex, 1)
	start := time.Now()

	h.deps.Snapshots.Snapshot(page, SuiteIndex, snapshot.Options{})

	opts := audit.Options{Exclude: h.cfg.IndexSkipRules}
	result, err := h.deps.Audits.Audit(page, opts)
	if err != nil {
		err = fmt.Errorf("%s: audit: %w", SuiteIndex, err)
	} else {
		err = h.aggregator.Evaluate(SuiteIndex, opts.Apply(result))
	}

	record.Record(&report.LinkResult{
		Name:     SuiteIndex,
		Location: baseURL,
		Strategy: "index",
		Duration: time.Since(start),
	}, err)
	if err != nil {
		return err
	}
	h.deps.Log.Successf("%s", SuiteIndex)
	return nil
}

// runSuite discovers the suite's links on a fresh page and processes the
// selected ones in document order.
func (h *Harness) runSuite(ctx context.Context, s suite, baseURL string, filter *SelectionFilter, summary *report.Summary) error {
	h.deps.Log.Section(s.name)
	page, err := h.openPage(baseURL)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	defer h.closePage(page)

	links, err := discovery.Discover(page, s.marker)
	if err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	h.deps.Log.Verbosef("discovered %d %s", len(links), s.name)

	record := summary.AddSuite(s.name, len(links))
	proc := strategy.NewProcessor(page, strategy.Deps{
		Snapshots:  h.deps.Snapshots,
		Audits:     h.deps.Audits,
		Aggregator: h.aggregator,
		SkipRules:  h.cfg.SkipRules,
		Log:        h.deps.Log,
	}, h.cfg.StrategySettings())

	include := func(l discovery.Link) bool {
		return filter.Include(s.key(s.target(l)))
	}

	processed, err := h.seq.Run(ctx, links, include, func(ctx context.Context, l discovery.Link) error {
		t := s.target(l)
		kind := s.kind(h.registry, t)
		h.deps.Log.Printf("%s", s.announce(t))
		h.deps.Log.Debugf("%s: %s strategy at %s", s.key(t), kind, t.Location)

		start := time.Now()
		err := strategy.Dispatch(ctx, proc, kind, t)
		record.Record(&report.LinkResult{
			Name:     t.Name,
			TestName: t.TestName,
			Location: t.Location,
			Strategy: kind.String(),
			Duration: time.Since(start),
		}, err)
		if err != nil {
			return err
		}

		h.deps.Log.Successf("%s", s.key(t))
		return nil
	})
	h.deps.Log.Verbosef("processed %d of %d %s", processed, len(links), s.name)
	return err
}

// openPage opens a fresh page on the index and waits for its main content.
func (h *Harness) openPage(baseURL string) (browser.Page, error) {
	page, err := h.deps.Browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if h.cfg.Browser.ReducedMotion {
		if err := page.EmulateReducedMotion(); err != nil {
			h.closePage(page)
			return nil, err
		}
	}

	page.OnPageError(func(err error) {
		h.deps.Log.Printf("Error from page: %v", err)
	})

	if err := page.Goto(baseURL, browser.NavigateOptions{WaitUntil: browser.WaitLoad}); err != nil {
		h.closePage(page)
		return nil, err
	}
	if err := page.WaitForSelector(selectorMainContent, browser.WaitOptions{
		State:   browser.StateAttached,
		Timeout: mainContentTimeout,
	}); err != nil {
		h.closePage(page)
		return nil, err
	}
	return page, nil
}

func (h *Harness) closePage(page browser.Page) {
	if err := page.Close(); err != nil {
		h.deps.Log.Warningf("%v", err)
	}
}
