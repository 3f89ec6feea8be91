// Package snapshot captures named visual snapshots of a page for external
// regression comparison. Captures are fire-and-forget: failures are logged
// and never fail the run.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/logging"
)

// Options configures a single capture.
type Options struct {
	// Scope restricts the capture to the element matching this CSS selector
	Scope string
}

// Client captures a named snapshot of the current page state.
type Client interface {
	Snapshot(page browser.Page, name string, opts Options)
}

// Mode selects the snapshot backend.
type Mode string

const (
	ModePercy      Mode = "percy"
	ModeScreenshot Mode = "screenshot"
	ModeNone       Mode = "none"
)

// Noop discards every snapshot.
type Noop struct{}

func (Noop) Snapshot(browser.Page, string, Options) {}

// Screenshots writes one PNG per snapshot into a directory.
type Screenshots struct {
	dir string
	log *logging.Logger

	mu   sync.Mutex
	seen map[string]int
}

// NewScreenshots creates a disk-backed snapshot client.
func NewScreenshots(dir string, log *logging.Logger) *Screenshots {
	return &Screenshots{dir: dir, log: log, seen: make(map[string]int)}
}

// Snapshot captures the page (or opts.Scope) to <dir>/<name>.png.
func (s *Screenshots) Snapshot(page browser.Page, name string, opts Options) {
	path, err := s.path(name)
	if err != nil {
		s.log.Warningf("snapshot %q skipped: %v", name, err)
		return
	}

	if _, err := page.Screenshot(browser.ScreenshotOptions{
		Path:     path,
		Scope:    opts.Scope,
		FullPage: opts.Scope == "",
	}); err != nil {
		s.log.Warningf("snapshot %q failed: %v", name, err)
		return
	}
	s.log.Verbosef("snapshot %q saved to %s", name, path)
}

// path returns a unique file path for name, creating the directory on first use.
func (s *Screenshots) path(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	base := FileName(name)
	s.seen[base]++
	if n := s.seen[base]; n > 1 {
		base = fmt.Sprintf("%s-%d", base, n)
	}
	return filepath.Join(s.dir, base+".png"), nil
}

// FileName turns a snapshot name into a safe file name.
func FileName(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "snapshot"
	}
	return out
}
