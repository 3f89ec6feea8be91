package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/fetch"
)

// DefaultAxeScriptURL is used when neither a script path nor URL is configured.
const DefaultAxeScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

const axePresentJS = `() => typeof window.axe !== 'undefined'`

// axeRunJS runs axe against the whole document and returns only the fields
// the harness reports on, so the result survives the trip back to Go.
const axeRunJS = `async ({ include, exclude }) => {
  const options = {};
  if (include.length > 0) {
    options.runOnly = { type: 'rule', values: include };
  }
  if (exclude.length > 0) {
    options.rules = {};
    for (const id of exclude) {
      options.rules[id] = { enabled: false };
    }
  }
  const results = await window.axe.run(document, options);
  return {
    violations: results.violations.map((v) => ({
      id: v.id,
      impact: v.impact || '',
      description: v.description,
      help: v.help,
      helpUrl: v.helpUrl,
      nodes: v.nodes.map((n) => ({ html: n.html, target: n.target.map(String) })),
    })),
  };
}`

// Axe audits pages with axe-core injected into the page under test.
type Axe struct {
	script string
}

// NewAxe creates an axe client from the axe-core source.
func NewAxe(script string) *Axe {
	return &Axe{script: script}
}

// Audit injects axe-core when the page does not have it yet and runs it.
func (a *Axe) Audit(page browser.Page, opts Options) (Result, error) {
	present, err := page.Evaluate(axePresentJS, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to probe for axe-core: %w", err)
	}
	if loaded, _ := present.(bool); !loaded {
		if err := page.AddScriptTag(a.script); err != nil {
			return Result{}, fmt.Errorf("failed to inject axe-core: %w", err)
		}
	}

	arg := map[string]interface{}{
		"include": nonNil(opts.Include),
		"exclude": nonNil(opts.Exclude),
	}
	raw, err := page.Evaluate(axeRunJS, arg)
	if err != nil {
		return Result{}, fmt.Errorf("axe run failed: %w", err)
	}

	result, err := decodeResult(raw)
	if err != nil {
		return Result{}, err
	}
	return opts.Apply(result), nil
}

// decodeResult converts the loosely typed evaluation result into a Result.
func decodeResult(raw interface{}) (Result, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode axe result: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("failed to decode axe result: %w", err)
	}
	return result, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// LoadScript reads axe-core from path when set, otherwise downloads it from
// url with client. Transient download failures are retried by client.
func LoadScript(ctx context.Context, client *retryablehttp.Client, path, url string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read axe script: %w", err)
		}
		return string(data), nil
	}

	if url == "" {
		url = DefaultAxeScriptURL
	}

	data, err := fetch.Get(ctx, client, url)
	if err != nil {
		return "", fmt.Errorf("failed to download axe script: %w", err)
	}
	return string(data), nil
}
