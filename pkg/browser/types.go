package browser

import "time"

// Page is the browser page contract the harness drives. Selectors are CSS
// selectors, or XPath expressions when they start with "//".
type Page interface {
	// Goto navigates to url and waits for the requested load state.
	Goto(url string, opts NavigateOptions) error

	// WaitForSelector blocks until an element matching selector reaches the requested state.
	WaitForSelector(selector string, opts WaitOptions) error

	// InnerText returns the rendered text of the first element matching selector.
	InnerText(selector string) (string, error)

	// InnerTexts returns the rendered text of every element matching selector, in document order.
	InnerTexts(selector string) ([]string, error)

	Click(selector string) error
	Hover(selector string) error

	// SelectOption selects value in the first <select> matching selector.
	SelectOption(selector, value string) error

	// Evaluate runs a JavaScript expression or function in the page context.
	Evaluate(expression string, arg interface{}) (interface{}, error)

	// AddScriptTag injects a <script> with the given source into the page.
	AddScriptTag(content string) error

	// Content returns the serialized HTML of the current document.
	Content() (string, error)

	URL() string

	Screenshot(opts ScreenshotOptions) ([]byte, error)

	// EmulateReducedMotion turns on the prefers-reduced-motion: reduce media feature.
	EmulateReducedMotion() error

	// OnPageError registers a callback for uncaught errors thrown inside the page.
	OnPageError(fn func(error))

	Close() error
}

// Launcher opens new pages on a running browser.
type Launcher interface {
	NewPage() (Page, error)
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Args are extra command line switches passed to Chromium
	Args []string

	// Timeout bounds browser start-up
	Timeout time.Duration

	// Install downloads the playwright driver and browsers before launching
	Install bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// DefaultTimeout applies to every page operation without an explicit timeout
	DefaultTimeout time.Duration
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// WaitUntil is the load state a navigation waits for.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	WaitUntil WaitUntil

	// Timeout of 0 means the page default
	Timeout time.Duration
}

// WaitState is the element state a wait blocks on.
type WaitState string

const (
	StateAttached WaitState = "attached"
	StateDetached WaitState = "detached"
	StateVisible  WaitState = "visible"
	StateHidden   WaitState = "hidden"
)

// WaitOptions configures waiting behavior.
type WaitOptions struct {
	// State to wait for; empty means attached
	State WaitState

	// Timeout of 0 means the page default
	Timeout time.Duration
}

// ScreenshotOptions configures page captures.
type ScreenshotOptions struct {
	// Path writes the image to disk when set
	Path string

	// Scope restricts the capture to the first element matching this selector
	Scope string

	FullPage bool
}

// Default values for various operations
const (
	DefaultTimeout        = 30 * time.Second
	DefaultLaunchTimeout  = 10 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)
