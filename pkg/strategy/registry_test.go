package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRegistry_Resolve(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		want Kind
	}{
		{"Message", KindMessage},
		{"Modal", KindModal},
		{"Page", KindPage},
		{"AssignmentIcon", KindIcon},
		{"UiIcon", KindIcon},
		{"Logo", KindIcon},
		{"Pennant", KindIcon},
		{"Button", KindDefault},
		{"", KindDefault},
		{"message", KindDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Resolve(tt.name), tt.name)
	}
}

func TestRegistry_ResolveUsage(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, KindClickableCardWithTooltip, r.ResolveUsage("ClickableCardwithTooltip"))
	assert.Equal(t, KindDefaultUsageExample, r.ResolveUsage("Clickable Card with Tooltip"))
	assert.Equal(t, KindDefaultUsageExample, r.ResolveUsage("Anything"))
}

func TestRegistry_IsTotal(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{"Accordion", "Ui.Icon", "Modal ", "🙂", "Page\n"} {
		k := r.Resolve(name)
		_, known := kindNames[k]
		assert.True(t, known, name)
		assert.False(t, k.Usage(), name)

		u := r.ResolveUsage(name)
		assert.True(t, u.Usage(), name)
	}
}

func TestRegistry_IsImmutable(t *testing.T) {
	components := map[string]Kind{"Button": KindPage}
	r := NewRegistry(components, nil)
	components["Button"] = KindModal
	components["Link"] = KindModal

	assert.Equal(t, KindPage, r.Resolve("Button"))
	assert.Equal(t, KindDefault, r.Resolve("Link"))

	merged := r.WithOverrides(map[string]Kind{"Link": KindIcon}, map[string]Kind{"Demo": KindClickableCardWithTooltip})
	assert.Equal(t, KindIcon, merged.Resolve("Link"))
	assert.Equal(t, KindClickableCardWithTooltip, merged.ResolveUsage("Demo"))
	assert.Equal(t, KindDefault, r.Resolve("Link"), "overrides do not leak into the base registry")
	assert.Equal(t, KindDefaultUsageExample, r.ResolveUsage("Demo"))
}

func TestKind_Text(t *testing.T) {
	for k, name := range kindNames {
		parsed, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.Equal(t, name, k.String())
	}

	_, err := ParseKind("carousel")
	assert.Error(t, err)
	assert.Equal(t, "kind(99)", Kind(99).String())
	_, err = Kind(99).MarshalText()
	assert.Error(t, err)
}

func TestKind_YAML(t *testing.T) {
	var table map[string]Kind
	require.NoError(t, yaml.Unmarshal([]byte("Banner: page\nTabs: modal\n"), &table))
	assert.Equal(t, map[string]Kind{"Banner": KindPage, "Tabs": KindModal}, table)

	err := yaml.Unmarshal([]byte("Banner: carousel\n"), &table)
	assert.Error(t, err)
}

type recordingStrategies struct {
	called []string
}

func (r *recordingStrategies) rec(name string) error {
	r.called = append(r.called, name)
	return nil
}

func (r *recordingStrategies) Default(context.Context, Target) error { return r.rec("default") }
func (r *recordingStrategies) Message(context.Context, Target) error { return r.rec("message") }
func (r *recordingStrategies) Modal(context.Context, Target) error { return r.rec("modal") }
func (r *recordingStrategies) Page(context.Context, Target) error { return r.rec("page") }
func (r *recordingStrategies) Icon(context.Context, Target) error { return r.rec("icon") }
func (r *recordingStrategies) ClickableCardWithTooltip(context.Context, Target) error {
	return r.rec("clickable-card-with-tooltip")
}
func (r *recordingStrategies) DefaultUsageExample(context.Context, Target) error {
	return r.rec("default-usage-example")
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	for k, name := range kindNames {
		rec := &recordingStrategies{}
		require.NoError(t, Dispatch(ctx, rec, k, Target{Name: "X"}))
		assert.Equal(t, []string{name}, rec.called)
	}

	err := Dispatch(ctx, &recordingStrategies{}, Kind(42), Target{Name: "X"})
	assert.Error(t, err)
}

func TestHeadingXPath(t *testing.T) {
	assert.Equal(t, "//h1[contains(., 'Nri.Ui.Button') and @aria-current='page']", HeadingXPath("Nri.Ui.Button"))
	assert.Equal(t, `//h1[contains(., "Don't") and @aria-current='page']`, HeadingXPath("Don't"))
	assert.Equal(t, `//h1[contains(., concat('a', "'", 'b"c')) and @aria-current='page']`, HeadingXPath(`a'b"c`))
}

func TestNormalizeTestName(t *testing.T) {
	assert.Equal(t, "ClickableCardwithTooltip", NormalizeTestName("Clickable Card with Tooltip"))
	assert.Equal(t, "Button", NormalizeTestName("Button"))
}
