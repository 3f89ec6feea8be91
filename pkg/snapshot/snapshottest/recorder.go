// Package snapshottest provides an in-memory snapshot client for tests.
package snapshottest

import (
	"sync"

	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/snapshot"
)

// Shot is one snapshot captured by a Recorder.
type Shot struct {
	Name  string
	Scope string
	URL   string
}

// Recorder keeps every snapshot request in memory.
type Recorder struct {
	mu    sync.Mutex
	Shots []Shot
}

var _ snapshot.Client = (*Recorder)(nil)

func (r *Recorder) Snapshot(page browser.Page, name string, opts snapshot.Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Shots = append(r.Shots, Shot{Name: name, Scope: opts.Scope, URL: page.URL()})
}

// Names returns the recorded snapshot names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Shots))
	for i, s := range r.Shots {
		names[i] = s.Name
	}
	return names
}
