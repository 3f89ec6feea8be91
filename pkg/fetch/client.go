// Package fetch builds the retrying HTTP client used for every outbound
// request a run makes: downloading axe-core and talking to the Percy agent.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/entrhq/uiaudit/pkg/logging"
)

// Defaults for NewClient.
const (
	DefaultRetryMax     = 4
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 4 * time.Second
	DefaultTimeout      = 30 * time.Second
)

// NewClient returns a client that retries connection errors and 5xx
// responses up to DefaultRetryMax times. Once retries are exhausted the last
// response is returned as is, so callers can report its status.
func NewClient(log *logging.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = DefaultTimeout
	client.RetryMax = DefaultRetryMax
	client.RetryWaitMin = DefaultRetryWaitMin
	client.RetryWaitMax = DefaultRetryWaitMax
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = &retryLogger{log: log}
	return client
}

// Get fetches url and returns the body of a 200 response.
func Get(ctx context.Context, client *retryablehttp.Client, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return do(client, req)
}

// PostJSON posts body as JSON to url and returns the body of a 200 response.
func PostJSON(ctx context.Context, client *retryablehttp.Client, url string, body []byte) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req)
}

func do(client *retryablehttp.Client, req *retryablehttp.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: req.Method, URL: req.URL.String(), Status: resp.Status, Code: resp.StatusCode}
	}
	return data, nil
}

// StatusError reports a non-200 response that survived every retry.
type StatusError struct {
	Method string
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %s", e.Method, e.URL, e.Status)
}

// retryLogger adapts logging.Logger to retryablehttp.LeveledLogger.
type retryLogger struct {
	log *logging.Logger
}

func (r *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.printf(func(l *logging.Logger, s string) { l.Warningf("%s", s) }, msg, keysAndValues)
}

func (r *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.printf(func(l *logging.Logger, s string) { l.Warningf("%s", s) }, msg, keysAndValues)
}

func (r *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	r.printf(func(l *logging.Logger, s string) { l.Verbosef("%s", s) }, msg, keysAndValues)
}

func (r *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.printf(func(l *logging.Logger, s string) { l.Debugf("%s", s) }, msg, keysAndValues)
}

func (r *retryLogger) printf(emit func(*logging.Logger, string), msg string, keysAndValues []interface{}) {
	if r.log == nil {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	emit(r.log, b.String())
}
