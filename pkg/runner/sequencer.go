// Package runner drives a harness run: it validates setup, serves the site,
// and walks each suite's discovered links one at a time through their
// strategies.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/entrhq/uiaudit/pkg/discovery"
)

// ErrOverlap is returned when a sequencer is entered while a step is running.
var ErrOverlap = errors.New("sequencer: a step is already in progress")

// Sequencer runs steps strictly one after another. The page a step drives is
// shared, so a step never starts before the previous one has finished.
type Sequencer struct {
	busy atomic.Bool
}

// Run calls exec for every link accepted by include, in order. It stops at
// the first error and returns how many links were processed.
func (s *Sequencer) Run(ctx context.Context, links []discovery.Link, include func(discovery.Link) bool, exec func(context.Context, discovery.Link) error) (int, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return 0, ErrOverlap
	}
	defer s.busy.Store(false)

	processed := 0
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return processed, fmt.Errorf("run canceled before %s: %w", link.Name, err)
		}
		if !include(link) {
			continue
		}

		processed++
		if err := exec(ctx, link); err != nil {
			return processed, err
		}
	}
	return processed, nil
}
