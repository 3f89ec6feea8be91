package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/browser/browsertest"
	"github.com/entrhq/uiaudit/pkg/config"
	"github.com/entrhq/uiaudit/pkg/logging"
	"github.com/entrhq/uiaudit/pkg/report"
	"github.com/entrhq/uiaudit/pkg/snapshot"
	"github.com/entrhq/uiaudit/pkg/snapshot/snapshottest"
	"github.com/entrhq/uiaudit/pkg/strategy"
)

const indexHTML = `<html><body><main id="maincontent">
<nav>
  <a data-nri-description="doodad-link" href="#/doodad/Button">Button</a>
  <a data-nri-description="doodad-link" href="#/doodad/Loading">Loading</a>
  <a data-nri-description="doodad-link" href="#/doodad/Modal">Modal</a>
</nav>
<ul>
  <li><a data-nri-description="usage-example-link" href="#/usage_example/Simple%20Form">Simple Form</a></li>
</ul>
</main></body></html>`

// siteAudit fails the audit of any page whose URL ends with a key of fail.
type siteAudit struct {
	mu   sync.Mutex
	urls []string
	opts []audit.Options
	fail map[string]audit.Result
}

func (a *siteAudit) Audit(page browser.Page, opts audit.Options) (audit.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, page.URL())
	a.opts = append(a.opts, opts)
	for suffix, r := range a.fail {
		if strings.HasSuffix(page.URL(), suffix) {
			return r, nil
		}
	}
	return audit.Result{}, nil
}

// sitePage is a fake page rendering the demo index and every example page.
func sitePage() *browsertest.Page {
	p := browsertest.New()
	p.HTML = indexHTML
	p.Set(selectorMainContent)
	for _, name := range []string{"Button", "Loading", "Modal"} {
		p.Set(strategy.HeadingXPath("Nri.Ui." + name))
	}
	p.Set(strategy.HeadingXPath("Simple Form"))
	p.Set("#launch-modal")
	p.Set(`[role="dialog"]`)
	p.Set(`[aria-label="Close modal"]`)
	return p
}

type fixture struct {
	cfg      *config.Config
	launcher *browsertest.Launcher
	audits   *siteAudit
	shots    *snapshottest.Recorder
	out      *bytes.Buffer
}

func newFixture(t *testing.T, pages int) *fixture {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(indexHTML), 0600))

	cfg := config.DefaultConfig()
	cfg.Root = root
	cfg.Port = 0
	cfg.SettleDelay = 0
	cfg.Snapshot.Mode = snapshot.ModeNone

	f := &fixture{
		cfg:      cfg,
		launcher: &browsertest.Launcher{},
		audits:   &siteAudit{fail: map[string]audit.Result{}},
		shots:    &snapshottest.Recorder{},
		out:      &bytes.Buffer{},
	}
	for i := 0; i < pages; i++ {
		f.launcher.Pages = append(f.launcher.Pages, sitePage())
	}
	return f
}

func (f *fixture) run(ctx context.Context) (*report.Summary, error) {
	h := New(f.cfg, Deps{
		Browser:   f.launcher,
		Snapshots: f.shots,
		Audits:    f.audits,
		Log:       logging.NewPlainLogger(logging.LevelNormal, f.out),
	})
	return h.Run(ctx)
}

func gotos(p *browsertest.Page) []string {
	var out []string
	for _, c := range p.Calls() {
		if c.Op == "goto" {
			out = append(out, c.Arg)
		}
	}
	return out
}

func TestHarness_RunAll(t *testing.T) {
	f := newFixture(t, 3)

	summary, err := f.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, report.StatusSuccess, summary.Status)
	require.Len(t, summary.Suites, 3)
	assert.Equal(t, SuiteIndex, summary.Suites[0].Name)
	assert.Equal(t, SuiteComponents, summary.Suites[1].Name)
	assert.Equal(t, 3, summary.Suites[1].Discovered)
	assert.Equal(t, SuiteUsageExamples, summary.Suites[2].Name)
	passed, failed := summary.Counts()
	assert.Equal(t, 5, passed)
	assert.Zero(t, failed)

	assert.Equal(t, []string{"index view", "Button", "Loading", "Modal - info", "Simple Form"}, f.shots.Names())

	assert.Equal(t, 3, f.launcher.Opened)
	assert.True(t, f.launcher.ShutDown)
	for _, p := range f.launcher.Pages {
		assert.True(t, p.Closed)
		assert.True(t, p.ReducedMotion)
	}

	require.NotEmpty(t, f.audits.opts)
	assert.Equal(t, audit.DefaultIndexSkipRules(), f.audits.opts[0].Exclude)

	components := gotos(f.launcher.Pages[1])
	require.Len(t, components, 4)
	assert.True(t, strings.HasSuffix(components[1], "#/doodad/Button"))
	assert.True(t, strings.HasSuffix(components[2], "#/doodad/Loading"))
	assert.True(t, strings.HasSuffix(components[3], "#/doodad/Modal"))

	out := f.out.String()
	assert.Contains(t, out, "Testing Button")
	assert.Contains(t, out, "Testing Usage Example SimpleForm")
}

func TestHarness_SelectsOnlyTheNamedComponent(t *testing.T) {
	f := newFixture(t, 2)
	f.cfg.Only = "Loading"

	summary, err := f.run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, f.launcher.Opened, "no index view when a component is selected")
	components := gotos(f.launcher.Pages[0])
	require.Len(t, components, 2)
	assert.True(t, strings.HasSuffix(components[1], "#/doodad/Loading"))
	assert.Len(t, gotos(f.launcher.Pages[1]), 1, "usage examples are listed but not visited")

	require.Len(t, f.audits.opts, 1)
	assert.Equal(t, []string{"color-contrast"}, f.audits.opts[0].Exclude)
	assert.Equal(t, []string{"Loading"}, f.shots.Names())

	require.Len(t, summary.Suites, 2)
	assert.Len(t, summary.Suites[0].Results, 1)
	assert.Empty(t, summary.Suites[1].Results)
}

func TestHarness_SelectsUsageExampleByTestName(t *testing.T) {
	f := newFixture(t, 2)
	f.cfg.Only = "SimpleForm"

	_, err := f.run(context.Background())
	require.NoError(t, err)

	assert.Len(t, gotos(f.launcher.Pages[0]), 1)
	usage := gotos(f.launcher.Pages[1])
	require.Len(t, usage, 2)
	assert.True(t, strings.HasSuffix(usage[1], "#/usage_example/Simple%20Form"))
	assert.Equal(t, []string{"Simple Form"}, f.shots.Names())
}

func TestHarness_Exclude(t *testing.T) {
	f := newFixture(t, 3)
	f.cfg.Exclude = []string{"Load*", "Modal"}

	_, err := f.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"index view", "Button", "Simple Form"}, f.shots.Names())
}

func TestHarness_FailFast(t *testing.T) {
	f := newFixture(t, 3)
	f.audits.fail["#/doodad/Button"] = audit.Result{Violations: []audit.Violation{{
		ID:          "button-name",
		Description: "Ensures buttons have discernible text",
		Nodes:       []audit.Node{{HTML: "<button></button>"}},
	}}}

	summary, err := f.run(context.Background())

	var verr *audit.ViolationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Button", verr.Scope)
	assert.Equal(t, report.StatusFailed, summary.Status)

	assert.Equal(t, 2, f.launcher.Opened, "usage examples never start")
	assert.Len(t, gotos(f.launcher.Pages[1]), 2, "Loading is never visited")
	assert.True(t, f.launcher.Pages[1].Closed)
	assert.True(t, f.launcher.ShutDown)

	out := f.out.String()
	assert.Contains(t, out, "button-name : Ensures buttons have discernible text")
	assert.Contains(t, out, "<button></button>")

	passed, failed := summary.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
}

func TestHarness_SetupError(t *testing.T) {
	f := newFixture(t, 3)
	f.cfg.Root = filepath.Join(t.TempDir(), "missing")

	summary, err := f.run(context.Background())

	var setup *config.SetupError
	require.True(t, errors.As(err, &setup))
	assert.Equal(t, report.StatusFailed, summary.Status)
	assert.Zero(t, f.launcher.Opened)
	assert.False(t, f.launcher.Initialized)
	assert.Empty(t, f.audits.urls)
}

func TestHarness_BrowserLaunchFailure(t *testing.T) {
	f := newFixture(t, 3)
	f.launcher.InitErr = errors.New("chromium not installed")

	_, err := f.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromium not installed")
	assert.Zero(t, f.launcher.Opened)
}

func TestHarness_IndexNeverLoads(t *testing.T) {
	f := newFixture(t, 3)
	f.launcher.Pages[0].Unset(selectorMainContent)

	_, err := f.run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), SuiteIndex)
	assert.Contains(t, err.Error(), mainContentTimeout.String())
	assert.True(t, f.launcher.Pages[0].Closed)
	assert.Equal(t, 1, f.launcher.Opened)
}

func TestHarness_LogsPageErrors(t *testing.T) {
	f := newFixture(t, 3)
	f.launcher.Pages[1].OnGoto = func(p *browsertest.Page, url string) {
		p.EmitPageError(fmt.Errorf("ReferenceError: Elm is not defined"))
	}

	_, err := f.run(context.Background())
	require.NoError(t, err, "page errors are not fatal")
	assert.Contains(t, f.out.String(), "Error from page: ReferenceError: Elm is not defined")
}

func TestHarness_Canceled(t *testing.T) {
	f := newFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.launcher.Opened)
}

func TestHarness_StrategyOverrides(t *testing.T) {
	f := newFixture(t, 2)
	f.cfg.Only = "Button"
	f.cfg.Strategies = map[string]strategy.Kind{"Button": strategy.KindPage}

	summary, err := f.run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Suites[0].Results, 1)
	assert.Equal(t, "page", summary.Suites[0].Results[0].Strategy)
	require.Len(t, f.shots.Shots, 1)
	assert.Equal(t, "[data-page-container='']", f.shots.Shots[0].Scope)
}

func TestHarness_DebugLogsStrategy(t *testing.T) {
	f := newFixture(t, 2)
	f.cfg.Only = "Modal"

	h := New(f.cfg, Deps{
		Browser:   f.launcher,
		Snapshots: f.shots,
		Audits:    f.audits,
		Log:       logging.NewPlainLogger(logging.LevelDebug, f.out),
	})
	_, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, f.out.String(), "[DEBUG] Modal: modal strategy at ")
}
