// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/entrhq/uiaudit/pkg/browser"
)

// Call records one operation performed on a Page.
type Call struct {
	Op  string
	Arg string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Op
	}
	return c.Op + " " + c.Arg
}

// Page is a scriptable fake. Elements "exist" when their selector is in
// Present; clicks and hovers run the registered handlers, which mutate the
// fake's state the way the real page would.
type Page struct {
	mu    sync.Mutex
	calls []Call

	HTML    string
	PageURL string

	Present map[string]bool
	Texts   map[string]string
	Lists   map[string][]string

	OnGoto  func(p *Page, url string)
	OnClick map[string]func(p *Page)
	OnHover map[string]func(p *Page)

	EvaluateFunc func(expression string, arg interface{}) (interface{}, error)

	// Fail makes the operation "op selector" return the given error.
	Fail map[string]error

	Scripts       []string
	Closed        bool
	ReducedMotion bool

	errorHandlers []func(error)
}

var _ browser.Page = (*Page)(nil)

// New returns an empty fake page.
func New() *Page {
	return &Page{
		Present: map[string]bool{},
		Texts:   map[string]string{},
		Lists:   map[string][]string{},
		OnClick: map[string]func(*Page){},
		OnHover: map[string]func(*Page){},
		Fail:    map[string]error{},
	}
}

func (p *Page) record(op, arg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: op, Arg: arg})
	if err, ok := p.Fail[op+" "+arg]; ok {
		return err
	}
	return nil
}

// Calls returns a copy of every recorded operation.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Ops returns the recorded operations formatted as "op arg".
func (p *Page) Ops() []string {
	calls := p.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// Count returns how many times op was called.
func (p *Page) Count(op string) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Set marks selector as present.
func (p *Page) Set(selector string) { p.Present[selector] = true }

// Unset marks selector as absent.
func (p *Page) Unset(selector string) { delete(p.Present, selector) }

// EmitPageError delivers err to every OnPageError callback.
func (p *Page) EmitPageError(err error) {
	for _, fn := range p.errorHandlers {
		fn(err)
	}
}

func (p *Page) Goto(url string, opts browser.NavigateOptions) error {
	if err := p.record("goto", url); err != nil {
		return err
	}
	p.PageURL = url
	if p.OnGoto != nil {
		p.OnGoto(p, url)
	}
	return nil
}

func (p *Page) WaitForSelector(selector string, opts browser.WaitOptions) error {
	if err := p.record("wait", selector); err != nil {
		return err
	}
	if !p.Present[selector] {
		return fmt.Errorf("timeout %s exceeded waiting for %s", opts.Timeout, selector)
	}
	return nil
}

func (p *Page) InnerText(selector string) (string, error) {
	if err := p.record("text", selector); err != nil {
		return "", err
	}
	text, ok := p.Texts[selector]
	if !ok {
		return "", fmt.Errorf("no element matches %s", selector)
	}
	return text, nil
}

func (p *Page) InnerTexts(selector string) ([]string, error) {
	if err := p.record("texts", selector); err != nil {
		return nil, err
	}
	return p.Lists[selector], nil
}

func (p *Page) Click(selector string) error {
	if err := p.record("click", selector); err != nil {
		return err
	}
	if fn, ok := p.OnClick[selector]; ok {
		fn(p)
		return nil
	}
	if !p.Present[selector] {
		return fmt.Errorf("no element matches %s", selector)
	}
	return nil
}

func (p *Page) Hover(selector string) error {
	if err := p.record("hover", selector); err != nil {
		return err
	}
	if fn, ok := p.OnHover[selector]; ok {
		fn(p)
		return nil
	}
	if !p.Present[selector] {
		return fmt.Errorf("no element matches %s", selector)
	}
	return nil
}

func (p *Page) SelectOption(selector, value string) error {
	return p.record("select", selector+"="+value)
}

func (p *Page) Evaluate(expression string, arg interface{}) (interface{}, error) {
	if err := p.record("evaluate", firstLine(expression)); err != nil {
		return nil, err
	}
	if p.EvaluateFunc == nil {
		return nil, nil
	}
	return p.EvaluateFunc(expression, arg)
}

func (p *Page) AddScriptTag(content string) error {
	if err := p.record("script", ""); err != nil {
		return err
	}
	p.Scripts = append(p.Scripts, content)
	return nil
}

func (p *Page) Content() (string, error) {
	if err := p.record("content", ""); err != nil {
		return "", err
	}
	return p.HTML, nil
}

func (p *Page) URL() string {
	return p.PageURL
}

func (p *Page) Screenshot(opts browser.ScreenshotOptions) ([]byte, error) {
	if err := p.record("screenshot", opts.Scope); err != nil {
		return nil, err
	}
	return []byte("PNG"), nil
}

func (p *Page) EmulateReducedMotion() error {
	if err := p.record("emulate", "prefers-reduced-motion"); err != nil {
		return err
	}
	p.ReducedMotion = true
	return nil
}

func (p *Page) OnPageError(fn func(error)) {
	p.errorHandlers = append(p.errorHandlers, fn)
}

func (p *Page) Close() error {
	if err := p.record("close", ""); err != nil {
		return err
	}
	p.Closed = true
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Launcher hands out pages from a queue, recording how many were opened.
type Launcher struct {
	Pages  []*Page
	Opened int

	Initialized bool
	ShutDown    bool

	// InitErr is returned by Initialize when set
	InitErr error
}

func (l *Launcher) Initialize() error {
	if l.InitErr != nil {
		return l.InitErr
	}
	l.Initialized = true
	return nil
}

func (l *Launcher) NewPage() (browser.Page, error) {
	if !l.Initialized {
		return nil, fmt.Errorf("browser not initialized")
	}
	if l.Opened >= len(l.Pages) {
		return nil, fmt.Errorf("no more fake pages (opened %d)", l.Opened)
	}
	p := l.Pages[l.Opened]
	l.Opened++
	return p, nil
}

func (l *Launcher) Shutdown() error {
	l.ShutDown = true
	return nil
}
