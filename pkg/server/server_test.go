package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func site(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>index</h1>"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0600))
	return root
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(site(t), 0, zap.New(core))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "<h1>index</h1>"},
		{"/index.html", http.StatusMovedPermanently, ""},
		{"/assets/app.js", http.StatusOK, "console.log(1)"},
		{"/missing.html", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}

	assert.GreaterOrEqual(t, logs.Len(), len(tests), "every request is access logged")
}

func TestHandler_NoDirectoryListing(t *testing.T) {
	s := New(site(t), 0, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/", nil))
	assert.NotContains(t, rec.Body.String(), "app.js")
}

func TestServer_StartShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(site(t), 0, nil)
	assert.Empty(t, s.URL())

	url, err := s.Start()
	require.NoError(t, err)
	assert.Regexp(t, `^http://localhost:\d+$`, url)
	assert.Equal(t, url, s.URL())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	status, body := get(t, client, url+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>index</h1>", body)

	_, err = s.Start()
	assert.Error(t, err, "a server starts once")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_, err = client.Get(url + "/")
	assert.Error(t, err)
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := New(site(t), 0, nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestServer_PortInUse(t *testing.T) {
	first := New(site(t), 0, nil)
	url, err := first.Start()
	require.NoError(t, err)
	defer first.Shutdown(context.Background()) //nolint:errcheck

	second := New(site(t), first.addr.Port, nil)
	_, err = second.Start()
	assert.Error(t, err, "port taken: %s", url)
}
