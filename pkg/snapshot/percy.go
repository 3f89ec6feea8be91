package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/entrhq/uiaudit/pkg/browser"
	"github.com/entrhq/uiaudit/pkg/fetch"
	"github.com/entrhq/uiaudit/pkg/logging"
)

// DefaultPercyServer is where the Percy CLI agent listens during `percy exec`.
const DefaultPercyServer = "http://localhost:5338"

const percySerializeJS = `() => PercyDOM.serialize({ enableJavaScript: false })`

const (
	percyConnectTimeout  = 30 * time.Second
	percySnapshotTimeout = 60 * time.Second
)

// Percy posts DOM snapshots to a local Percy agent. When the agent is still
// unreachable after retries the client warns once and disables itself.
type Percy struct {
	server     string
	clientInfo string
	log        *logging.Logger
	client     *retryablehttp.Client

	once     sync.Once
	enabled  bool
	disabled error
	domJS    string
}

// NewPercy creates a Percy client for the agent at server. A nil client
// gets fetch.NewClient.
func NewPercy(server, clientInfo string, client *retryablehttp.Client, log *logging.Logger) *Percy {
	if server == "" {
		server = DefaultPercyServer
	}
	if client == nil {
		client = fetch.NewClient(log)
	}
	return &Percy{
		server:     strings.TrimRight(server, "/"),
		clientInfo: clientInfo,
		log:        log,
		client:     client,
	}
}

// Disabled returns why snapshots were turned off, or nil when they were
// taken or never attempted. It must not race with Snapshot.
func (p *Percy) Disabled() error {
	return p.disabled
}

type percySnapshot struct {
	Name            string      `json:"name"`
	URL             string      `json:"url"`
	DOMSnapshot     interface{} `json:"domSnapshot"`
	ClientInfo      string      `json:"clientInfo"`
	EnvironmentInfo string      `json:"environmentInfo"`
	Scope           string      `json:"scope,omitempty"`
}

// Snapshot serializes the page DOM and uploads it under name.
func (p *Percy) Snapshot(page browser.Page, name string, opts Options) {
	p.once.Do(p.connect)
	if !p.enabled {
		return
	}

	if err := page.AddScriptTag(p.domJS); err != nil {
		p.log.Warningf("percy snapshot %q failed: %v", name, err)
		return
	}
	dom, err := page.Evaluate(percySerializeJS, nil)
	if err != nil {
		p.log.Warningf("percy snapshot %q failed: %v", name, err)
		return
	}

	body, err := json.Marshal(percySnapshot{
		Name:            name,
		URL:             page.URL(),
		DOMSnapshot:     dom,
		ClientInfo:      p.clientInfo,
		EnvironmentInfo: "playwright-go",
		Scope:           opts.Scope,
	})
	if err != nil {
		p.log.Warningf("percy snapshot %q failed: %v", name, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), percySnapshotTimeout)
	defer cancel()
	if _, err := fetch.PostJSON(ctx, p.client, p.server+"/percy/snapshot", body); err != nil {
		p.log.Warningf("percy snapshot %q failed: %v", name, err)
		return
	}
	p.log.Verbosef("percy snapshot %q taken", name)
}

// connect probes the agent and fetches the DOM serialization script.
func (p *Percy) connect() {
	ctx, cancel := context.WithTimeout(context.Background(), percyConnectTimeout)
	defer cancel()

	if _, err := fetch.Get(ctx, p.client, p.server+"/percy/healthcheck"); err != nil {
		p.disable("Percy is not running", err)
		return
	}
	domJS, err := fetch.Get(ctx, p.client, p.server+"/percy/dom.js")
	if err != nil {
		p.disable("could not fetch the Percy DOM script", err)
		return
	}

	p.domJS = string(domJS)
	p.enabled = true
}

func (p *Percy) disable(reason string, err error) {
	p.disabled = fmt.Errorf("%s: %w", reason, err)
	p.log.Warningf("%s, visual snapshots are disabled for this run (%v)", reason, err)
}
