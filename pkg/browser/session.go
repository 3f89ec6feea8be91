package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is a playwright-backed Page.
type Session struct {
	page playwright.Page
}

// NewSession wraps an existing playwright page.
func NewSession(page playwright.Page) *Session {
	return &Session{page: page}
}

// selector maps "//" expressions onto playwright's xpath engine.
func selector(sel string) string {
	if strings.HasPrefix(sel, "//") || strings.HasPrefix(sel, "(//") {
		return "xpath=" + sel
	}
	return sel
}

func millis(d time.Duration) *float64 {
	ms := float64(d) / float64(time.Millisecond)
	return &ms
}

// Goto navigates the session's page to the specified URL.
func (s *Session) Goto(url string, opts NavigateOptions) error {
	playwrightOpts := playwright.PageGotoOptions{}

	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		playwrightOpts.WaitUntil = &waitUntil
	}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = millis(opts.Timeout)
	}

	if _, err := s.page.Goto(url, playwrightOpts); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// WaitForSelector waits for an element or condition.
func (s *Session) WaitForSelector(sel string, opts WaitOptions) error {
	if sel == "" {
		return fmt.Errorf("selector is required for wait")
	}

	state := opts.State
	if state == "" {
		state = StateAttached
	}
	pwState := playwright.WaitForSelectorState(state)
	playwrightOpts := playwright.PageWaitForSelectorOptions{State: &pwState}

	if opts.Timeout > 0 {
		playwrightOpts.Timeout = millis(opts.Timeout)
	}

	if _, err := s.page.WaitForSelector(selector(sel), playwrightOpts); err != nil {
		return fmt.Errorf("wait for %s failed: %w", sel, err)
	}
	return nil
}

// InnerText returns the rendered text of the first match.
func (s *Session) InnerText(sel string) (string, error) {
	text, err := s.page.Locator(selector(sel)).First().InnerText()
	if err != nil {
		return "", fmt.Errorf("text extraction for %s failed: %w", sel, err)
	}
	return text, nil
}

// InnerTexts returns the rendered text of every match.
func (s *Session) InnerTexts(sel string) ([]string, error) {
	texts, err := s.page.Locator(selector(sel)).AllInnerTexts()
	if err != nil {
		return nil, fmt.Errorf("text extraction for %s failed: %w", sel, err)
	}
	return texts, nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(sel string) error {
	if err := s.page.Locator(selector(sel)).First().Click(); err != nil {
		return fmt.Errorf("click on %s failed: %w", sel, err)
	}
	return nil
}

// Hover moves the mouse over the first element matching the selector.
func (s *Session) Hover(sel string) error {
	if err := s.page.Locator(selector(sel)).First().Hover(); err != nil {
		return fmt.Errorf("hover on %s failed: %w", sel, err)
	}
	return nil
}

// SelectOption picks value in the first matching <select>.
func (s *Session) SelectOption(sel, value string) error {
	values := []string{value}
	_, err := s.page.Locator(selector(sel)).First().SelectOption(playwright.SelectOptionValues{Values: &values})
	if err != nil {
		return fmt.Errorf("select %q in %s failed: %w", value, sel, err)
	}
	return nil
}

// Evaluate runs JavaScript in the page.
func (s *Session) Evaluate(expression string, arg interface{}) (interface{}, error) {
	var (
		result interface{}
		err    error
	)
	if arg == nil {
		result, err = s.page.Evaluate(expression)
	} else {
		result, err = s.page.Evaluate(expression, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	return result, nil
}

// AddScriptTag injects script content into the page.
func (s *Session) AddScriptTag(content string) error {
	if _, err := s.page.AddScriptTag(playwright.PageAddScriptTagOptions{Content: &content}); err != nil {
		return fmt.Errorf("script injection failed: %w", err)
	}
	return nil
}

// Content returns the current document HTML.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}
	return html, nil
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Screenshot captures the page, or the element named by opts.Scope.
func (s *Session) Screenshot(opts ScreenshotOptions) ([]byte, error) {
	var path *string
	if opts.Path != "" {
		path = &opts.Path
	}

	if opts.Scope != "" {
		data, err := s.page.Locator(selector(opts.Scope)).First().Screenshot(playwright.LocatorScreenshotOptions{Path: path})
		if err != nil {
			return nil, fmt.Errorf("screenshot of %s failed: %w", opts.Scope, err)
		}
		return data, nil
	}

	fullPage := opts.FullPage
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{Path: path, FullPage: &fullPage})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

// EmulateReducedMotion sets prefers-reduced-motion to reduce.
func (s *Session) EmulateReducedMotion() error {
	if err := s.page.EmulateMedia(playwright.PageEmulateMediaOptions{
		ReducedMotion: playwright.ReducedMotionReduce,
	}); err != nil {
		return fmt.Errorf("media emulation failed: %w", err)
	}
	return nil
}

// OnPageError registers fn for uncaught page exceptions.
func (s *Session) OnPageError(fn func(error)) {
	s.page.OnPageError(fn)
}

// Close closes the page.
func (s *Session) Close() error {
	return s.page.Close()
}
