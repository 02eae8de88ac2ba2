package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabit-sh/rabit/pkg/types"
)

func newTestFetcher() *Fetcher {
	return New(Config{MinDelay: -1}) // negative disables spacing in tests
}

func TestFetcher_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, "hello")
		case "/missing":
			http.NotFound(w, r)
		case "/throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		case "/huge":
			w.Header().Set("Content-Length", fmt.Sprint(DefaultMaxResponseBytes+1))
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	f := newTestFetcher()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		text, err := f.Text(ctx, server.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("404 is not-found", func(t *testing.T) {
		_, err := f.Bytes(ctx, server.URL+"/missing")
		require.Error(t, err)
		assert.True(t, types.IsNotFound(err))
	})

	t.Run("429 is rate-limited", func(t *testing.T) {
		_, err := f.Bytes(ctx, server.URL+"/throttled")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.ErrRateLimited))
	})

	t.Run("500 is transport", func(t *testing.T) {
		_, err := f.Bytes(ctx, server.URL+"/broken")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.ErrTransport))
	})

	t.Run("oversized fails before body read", func(t *testing.T) {
		_, err := f.Bytes(ctx, server.URL+"/huge")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.ErrOversized))
	})
}

func TestFetcher_OversizedBodyWithoutContentLength(t *testing.T) {
	big := strings.Repeat("x", 2048)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Transfer-Encoding", "chunked")
		fmt.Fprint(w, big)
	}))
	defer server.Close()

	f := New(Config{MinDelay: -1, MaxResponseBytes: 1024})
	_, err := f.Bytes(context.Background(), server.URL+"/")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrOversized))
}

func TestFetcher_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))

	f := newTestFetcher()
	ctx := context.Background()

	t.Run("plain path", func(t *testing.T) {
		data, err := f.Bytes(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("file URI", func(t *testing.T) {
		data, err := f.Bytes(ctx, "file://"+path)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))
	})

	t.Run("missing file is not-found", func(t *testing.T) {
		_, err := f.Bytes(ctx, filepath.Join(dir, "absent.json"))
		require.Error(t, err)
		assert.True(t, types.IsNotFound(err))
	})
}

func TestFetcher_HTTPErrorSurfacesWithoutGitFallback(t *testing.T) {
	// The URI matches a recognized raw pattern, but with no git cache
	// configured the original HTTP error must surface.
	f := New(Config{
		MinDelay: -1,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("dial tcp: network unreachable")
		})},
	})

	_, err := f.Bytes(context.Background(), "https://raw.githubusercontent.com/o/r/main/.burrow.json")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrTransport))
	assert.Contains(t, err.Error(), "network unreachable")
}

func TestFetcher_UnsupportedTransport(t *testing.T) {
	f := newTestFetcher()
	for _, uri := range []string{"ftp://example.com/x", "ssh://example.com/x", "git@github.com:o/r.git"} {
		_, err := f.Bytes(context.Background(), uri)
		require.Error(t, err, "uri %q", uri)
		assert.True(t, types.IsKind(err, types.ErrTransport), "uri %q", uri)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
