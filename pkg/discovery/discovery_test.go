package discovery

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uiaudit/pkg/browser/browsertest"
)

const indexHTML = `<!DOCTYPE html>
<html><body>
<main id="maincontent">
  <nav>
    <a data-nri-description="doodad-link" href="#/doodad/Accordion">Accordion</a>
    <a data-nri-description="usage-example-link" href="#/usage_example/Clickable%20Card">Clickable Card with Tooltip</a>
    <a data-nri-description="doodad-link" href="/components/Message">Mess<span>age</span></a>
    <a href="#/doodad/Hidden">Hidden</a>
    <a data-nri-description="doodad-link" href="https://cdn.example.com/Modal">Modal</a>
  </nav>
</main>
</body></html>`

func TestParse(t *testing.T) {
	base, err := url.Parse("http://localhost:8000/")
	require.NoError(t, err)

	tests := []struct {
		name   string
		marker string
		want   []Link
	}{
		{
			name:   "component links in document order",
			marker: MarkerComponent,
			want: []Link{
				{Name: "Accordion", Location: "http://localhost:8000/#/doodad/Accordion"},
				{Name: "Message", Location: "http://localhost:8000/components/Message"},
				{Name: "Modal", Location: "https://cdn.example.com/Modal"},
			},
		},
		{
			name:   "usage example links",
			marker: MarkerUsageExample,
			want: []Link{
				{Name: "Clickable Card with Tooltip", Location: "http://localhost:8000/#/usage_example/Clickable%20Card"},
			},
		},
		{
			name:   "unknown marker",
			marker: "nothing-link",
			want:   []Link{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, err := Parse(strings.NewReader(indexHTML), base, tt.marker)
			require.NoError(t, err)
			assert.Equal(t, tt.want, links)
		})
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	links, err := Parse(strings.NewReader(""), nil, MarkerComponent)
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestParse_EmptyMarker(t *testing.T) {
	_, err := Parse(strings.NewReader(indexHTML), nil, "")
	assert.Error(t, err)

	page := browsertest.New()
	page.HTML = `<html><body><a href="/">Home</a><p>text</p></body></html>`
	_, err = Discover(page, "")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	page := browsertest.New()
	page.PageURL = "http://localhost:8000/"
	page.HTML = indexHTML

	links, err := Discover(page, MarkerComponent)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, "Accordion", links[0].Name)
	assert.Equal(t, []string{"content"}, page.Ops(), "discovery only reads page state")
}

func TestDiscover_ContentError(t *testing.T) {
	page := browsertest.New()
	page.Fail["content "] = errors.New("target closed")

	_, err := Discover(page, MarkerComponent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target closed")
}
