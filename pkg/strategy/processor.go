package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/uiaudit/pkg/audit"
	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/logging"
	"github.com/entrhq/uiaudit/pkg/snapshot"
)

// DOM contract of the demo site.
const (
	selectorLaunchModal      = "#launch-modal"
	selectorDialog           = `[role="dialog"]`
	selectorCloseModal       = `[aria-label="Close modal"]`
	selectorPageContainer    = "[data-page-container='']"
	selectorIconToggle       = "label"
	selectorChecked          = "[aria-checked=true]"
	selectorTooltipTrigger   = `[aria-label="Tooltip trigger"]`
	selectorTooltipVisible   = "[data-tooltip-visible=true]"
	selectorTooltipHidden    = "[data-tooltip-visible=false]"
	selectorContainer        = "#container-element"
	xpathClickMe             = "//button[contains(., 'Click me')]"
	xpathParentClicks        = "//p[contains(., 'Parent Clicks')]"
	themeLabel               = "theme"
	ruleColorContrast        = "color-contrast"
	iconNamesSnapshotSuffix  = " - display icon names"
	modalInfoSnapshotSuffix  = " - info"
	defaultHeadingPrefix     = "Nri.Ui."
	defaultHeadingTimeout    = 200 * time.Millisecond
	defaultSettleDelay       = 100 * time.Millisecond
	parentClicksTextTemplate = "Parent Clicks: %d"
)

// Settings tunes readiness polling.
type Settings struct {
	// HeadingPrefix namespaces component names in page headings
	HeadingPrefix string

	// HeadingTimeout bounds the wait for the active page heading
	HeadingTimeout time.Duration

	// SettleDelay is slept before reading debounced UI text
	SettleDelay time.Duration
}

// DefaultSettings returns the demo site's readiness settings.
func DefaultSettings() Settings {
	return Settings{
		HeadingPrefix:  defaultHeadingPrefix,
		HeadingTimeout: defaultHeadingTimeout,
		SettleDelay:    defaultSettleDelay,
	}
}

// Deps are the collaborators a Processor drives.
type Deps struct {
	Snapshots  snapshot.Client
	Audits     audit.Client
	Aggregator *audit.Aggregator
	SkipRules  audit.RuleSkipMap
	Log        *logging.Logger
}

// Processor implements Strategies against one page. The page belongs to the
// processor for as long as a strategy method runs.
type Processor struct {
	page     browser.Page
	deps     Deps
	settings Settings
}

var _ Strategies = (*Processor)(nil)

// NewProcessor creates a processor bound to page.
func NewProcessor(page browser.Page, deps Deps, settings Settings) *Processor {
	return &Processor{page: page, deps: deps, settings: settings}
}

// Default verifies an ordinary component page.
func (p *Processor) Default(ctx context.Context, t Target) error {
	if err := p.goToExample(t, p.settings.HeadingPrefix+t.Name); err != nil {
		return err
	}
	p.snapshot(t.Name, snapshot.Options{})

	result, err := p.audit(t, audit.Options{Exclude: p.deps.SkipRules.For(t.Name)})
	if err != nil {
		return err
	}
	return p.deps.Aggregator.Evaluate(t.Name, result)
}

// Message verifies the page, then re-audits colour contrast under a theme.
func (p *Processor) Message(ctx context.Context, t Target) error {
	if err := p.Default(ctx, t); err != nil {
		return err
	}

	if err := p.page.Click(labelledXPath(themeLabel, "")); err != nil {
		return p.fail(t, "activate theme control", err)
	}

	return p.forFirstOption(t, themeLabel, func(option string) error {
		scope := fmt.Sprintf("%s - %s", t.Name, option)
		p.snapshot(scope, snapshot.Options{})

		result, err := p.audit(t, audit.Options{Include: []string{ruleColorContrast}})
		if err != nil {
			return err
		}
		return p.deps.Aggregator.Evaluate(scope, result)
	})
}

// forFirstOption selects the first option of the select under the labelled
// control and runs fn with it. The remaining options are not exercised.
func (p *Processor) forFirstOption(t Target, label string, fn func(option string) error) error {
	selectXPath := labelledXPath(label, "//select")
	if err := p.page.WaitForSelector(selectXPath, browser.WaitOptions{Timeout: p.settings.HeadingTimeout}); err != nil {
		return p.fail(t, "wait for "+label+" select", err)
	}

	options, err := p.page.InnerTexts(labelledXPath(label, "//option"))
	if err != nil {
		return p.fail(t, "read "+label+" options", err)
	}
	if len(options) == 0 {
		return p.fail(t, "read "+label+" options", fmt.Errorf("no options under %s", selectXPath))
	}

	option := options[0]
	if err := p.page.SelectOption(selectXPath, option); err != nil {
		return p.fail(t, "select "+label+" option", err)
	}
	return fn(option)
}

// Modal opens the dialog, audits it while open and closes it before the
// verdict, so a failing close never hides audit violations.
func (p *Processor) Modal(ctx context.Context, t Target) error {
	if err := p.goToExample(t, p.settings.HeadingPrefix+t.Name); err != nil {
		return err
	}

	if err := p.page.Click(selectorLaunchModal); err != nil {
		return p.fail(t, "open dialog", err)
	}
	if err := p.page.WaitForSelector(selectorDialog, browser.WaitOptions{}); err != nil {
		return p.fail(t, "wait for dialog", err)
	}

	scope := t.Name + modalInfoSnapshotSuffix
	p.snapshot(scope, snapshot.Options{})

	result, auditErr := p.audit(t, audit.Options{})
	closeErr := p.page.Click(selectorCloseModal)

	if auditErr != nil {
		return auditErr
	}
	if err := p.deps.Aggregator.Evaluate(scope, result); err != nil {
		return err
	}
	if closeErr != nil {
		return p.fail(t, "close dialog", closeErr)
	}
	return nil
}

// Page audits first, then snapshots only the page container.
func (p *Processor) Page(ctx context.Context, t Target) error {
	if err := p.goToExample(t, p.settings.HeadingPrefix+t.Name); err != nil {
		return err
	}

	result, err := p.audit(t, audit.Options{Exclude: p.deps.SkipRules.For(t.Name)})
	if err != nil {
		return err
	}
	if err := p.deps.Aggregator.Evaluate(t.Name, result); err != nil {
		return err
	}

	p.snapshot(t.Name, snapshot.Options{Scope: selectorPageContainer})
	return nil
}

// Icon snapshots the icon grid with and without visible names, then audits.
func (p *Processor) Icon(ctx context.Context, t Target) error {
	if err := p.page.Goto(t.Location, browser.NavigateOptions{WaitUntil: browser.WaitLoad}); err != nil {
		return p.fail(t, "navigate", err)
	}
	if err := p.page.WaitForSelector("#"+t.Name, browser.WaitOptions{}); err != nil {
		return p.fail(t, "wait for #"+t.Name, err)
	}
	p.snapshot(t.Name, snapshot.Options{})

	if err := p.page.Click(selectorIconToggle); err != nil {
		return p.fail(t, "show icon names", err)
	}
	if err := p.page.WaitForSelector(selectorChecked, browser.WaitOptions{}); err != nil {
		return p.fail(t, "wait for icon names", err)
	}
	p.snapshot(t.Name+iconNamesSnapshotSuffix, snapshot.Options{})

	result, err := p.audit(t, audit.Options{Exclude: p.deps.SkipRules.For(t.Name)})
	if err != nil {
		return err
	}
	return p.deps.Aggregator.Evaluate(t.Name, result)
}

// DefaultUsageExample verifies a usage example. The heading carries the bare
// example name and skip rules are keyed by the test name.
func (p *Processor) DefaultUsageExample(ctx context.Context, t Target) error {
	if err := p.goToExample(t, t.Name); err != nil {
		return err
	}
	p.snapshot(t.Name, snapshot.Options{})

	result, err := p.audit(t, audit.Options{Exclude: p.deps.SkipRules.For(t.testName())})
	if err != nil {
		return err
	}
	return p.deps.Aggregator.Evaluate(t.Name, result)
}

// ClickableCardWithTooltip checks that the tooltip does not leak clicks to
// the card while the button and the container do.
func (p *Processor) ClickableCardWithTooltip(ctx context.Context, t Target) error {
	if err := p.DefaultUsageExample(ctx, t); err != nil {
		return err
	}

	steps := []func() error{
		func() error { return p.hasParentClicks(ctx, t, 0) },
		func() error { return p.waitFor(t, selectorTooltipHidden) },

		// Opening and closing the tooltip doesn't trigger the container effects
		func() error { return p.do(t, "hover tooltip trigger", p.page.Hover(selectorTooltipTrigger)) },
		func() error { return p.waitFor(t, selectorTooltipVisible) },
		func() error { return p.do(t, "toggle tooltip", p.page.Click(selectorTooltipTrigger)) },
		func() error { return p.waitFor(t, selectorTooltipHidden) },
		func() error { return p.hasParentClicks(ctx, t, 0) },

		// Clicking the button does trigger container effects
		func() error { return p.do(t, "click button", p.page.Click(xpathClickMe)) },
		func() error { return p.waitFor(t, selectorTooltipHidden) },
		func() error { return p.hasParentClicks(ctx, t, 1) },

		// Clicking the container does trigger container effects
		func() error { return p.do(t, "click container", p.page.Click(selectorContainer)) },
		func() error { return p.hasParentClicks(ctx, t, 2) },
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) hasParentClicks(ctx context.Context, t Target, count int) error {
	if err := sleep(ctx, p.settings.SettleDelay); err != nil {
		return err
	}

	text, err := p.page.InnerText(xpathParentClicks)
	if err != nil {
		return p.fail(t, "read parent clicks", err)
	}

	want := fmt.Sprintf(parentClicksTextTemplate, count)
	if text != want {
		return p.fail(t, "check parent clicks", fmt.Errorf("expected %q, got %q", want, text))
	}
	return nil
}

func (p *Processor) goToExample(t Target, heading string) error {
	p.deps.Log.Verbosef("navigating to %s", t.Location)
	if err := p.page.Goto(t.Location, browser.NavigateOptions{WaitUntil: browser.WaitLoad}); err != nil {
		return p.fail(t, "navigate", err)
	}

	if err := p.page.WaitForSelector(HeadingXPath(heading), browser.WaitOptions{
		State:   browser.StateAttached,
		Timeout: p.settings.HeadingTimeout,
	}); err != nil {
		return p.fail(t, "wait for heading "+heading, err)
	}
	return nil
}

func (p *Processor) waitFor(t Target, selector string) error {
	if err := p.page.WaitForSelector(selector, browser.WaitOptions{}); err != nil {
		return p.fail(t, "wait for "+selector, err)
	}
	return nil
}

func (p *Processor) do(t Target, step string, err error) error {
	if err != nil {
		return p.fail(t, step, err)
	}
	return nil
}

func (p *Processor) snapshot(name string, opts snapshot.Options) {
	p.deps.Log.Verbosef("snapshot %q", name)
	p.deps.Snapshots.Snapshot(p.page, name, opts)
}

// audit runs the audit client and drops excluded rules from its result.
func (p *Processor) audit(t Target, opts audit.Options) (audit.Result, error) {
	p.deps.Log.Verbosef("auditing %s (include=%v exclude=%v)", t.Name, opts.Include, opts.Exclude)
	result, err := p.deps.Audits.Audit(p.page, opts)
	if err != nil {
		return audit.Result{}, p.fail(t, "audit", err)
	}
	return opts.Apply(result), nil
}

func (p *Processor) fail(t Target, step string, err error) error {
	return &AssertionError{Target: t.Name, Step: step, Err: err}
}

func (t Target) testName() string {
	if t.TestName != "" {
		return t.TestName
	}
	return NormalizeTestName(t.Name)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
