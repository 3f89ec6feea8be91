// Package strategy holds the per-kind algorithms that verify one example page:
// navigate, wait for readiness, snapshot, audit and aggregate.
package strategy

import (
	"context"
	"fmt"
	"strings"
)

// Target is the page a strategy processes.
type Target struct {
	// Name is the link text as discovered on the index page
	Name string

	// TestName is the normalized name of a usage example; empty for component pages
	TestName string

	Location string
}

// NormalizeTestName strips spaces from a usage-example name.
func NormalizeTestName(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

// Strategies has one method per Kind.
type Strategies interface {
	Default(ctx context.Context, t Target) error
	Message(ctx context.Context, t Target) error
	Modal(ctx context.Context, t Target) error
	Page(ctx context.Context, t Target) error
	Icon(ctx context.Context, t Target) error
	ClickableCardWithTooltip(ctx context.Context, t Target) error
	DefaultUsageExample(ctx context.Context, t Target) error
}

// Dispatch runs the method of s that matches kind.
func Dispatch(ctx context.Context, s Strategies, kind Kind, t Target) error {
	switch kind {
	case KindDefault:
		return s.Default(ctx, t)
	case KindMessage:
		return s.Message(ctx, t)
	case KindModal:
		return s.Modal(ctx, t)
	case KindPage:
		return s.Page(ctx, t)
	case KindIcon:
		return s.Icon(ctx, t)
	case KindClickableCardWithTooltip:
		return s.ClickableCardWithTooltip(ctx, t)
	case KindDefaultUsageExample:
		return s.DefaultUsageExample(ctx, t)
	default:
		return fmt.Errorf("unknown strategy kind %d for %s", int(kind), t.Name)
	}
}

// AssertionError reports an expected page state that was not observed.
type AssertionError struct {
	Target string
	Step   string
	Err    error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Target, e.Step, e.Err)
}

// Unwrap returns the underlying error
func (e *AssertionError) Unwrap() error {
	return e.Err
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// HeadingXPath matches the active page heading containing text.
func HeadingXPath(text string) string {
	return fmt.Sprintf("//h1[contains(., %s) and @aria-current='page']", xpathLiteral(text))
}

// labelledXPath matches elements under the label containing text.
func labelledXPath(label, suffix string) string {
	return fmt.Sprintf("//label[contains(., %s)]%s", xpathLiteral(label), suffix)
}
