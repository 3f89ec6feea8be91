package strategy

import "maps"

// Registry maps example names to strategy kinds. It is built once and never
// mutated; lookups of unknown names fall back to the default kinds.
type Registry struct {
	components map[string]Kind
	usage      map[string]Kind
}

// NewRegistry copies the given tables into a registry.
func NewRegistry(components, usage map[string]Kind) *Registry {
	r := &Registry{
		components: make(map[string]Kind, len(components)),
		usage:      make(map[string]Kind, len(usage)),
	}
	maps.Copy(r.components, components)
	maps.Copy(r.usage, usage)
	return r
}

// DefaultComponentKinds is the built-in table for component pages.
func DefaultComponentKinds() map[string]Kind {
	return map[string]Kind{
		"Message":        KindMessage,
		"Modal":          KindModal,
		"Page":           KindPage,
		"AssignmentIcon": KindIcon,
		"UiIcon":         KindIcon,
		"Logo":           KindIcon,
		"Pennant":        KindIcon,
	}
}

// DefaultUsageKinds is the built-in table for usage-example pages, keyed by test name.
func DefaultUsageKinds() map[string]Kind {
	return map[string]Kind{
		"ClickableCardwithTooltip": KindClickableCardWithTooltip,
	}
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultComponentKinds(), DefaultUsageKinds())
}

// WithOverrides returns a new registry with extra entries layered over r.
func (r *Registry) WithOverrides(components, usage map[string]Kind) *Registry {
	merged := NewRegistry(r.components, r.usage)
	maps.Copy(merged.components, components)
	maps.Copy(merged.usage, usage)
	return merged
}

// Resolve returns the kind for a component page; KindDefault when unmapped.
func (r *Registry) Resolve(name string) Kind {
	if k, ok := r.components[name]; ok {
		return k
	}
	return KindDefault
}

// ResolveUsage returns the kind for a usage-example test name; KindDefaultUsageExample when unmapped.
func (r *Registry) ResolveUsage(testName string) Kind {
	if k, ok := r.usage[testName]; ok {
		return k
	}
	return KindDefaultUsageExample
}
