package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabit-sh/rabit/pkg/cache"
	"github.com/rabit-sh/rabit/pkg/fetch"
	"github.com/rabit-sh/rabit/pkg/types"
)

// fixtureServer serves manifest fixtures and records request paths.
type fixtureServer struct {
	*httptest.Server
	mu    sync.Mutex
	paths []string
	files map[string]string
}

func newFixtureServer(files map[string]string) *fixtureServer {
	fs := &fixtureServer{files: files}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.paths = append(fs.paths, r.URL.Path)
		fs.mu.Unlock()
		body, ok := fs.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	return fs
}

func (fs *fixtureServer) requested() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.paths...)
}

func newTestLoader(c *cache.Cache) *Loader {
	return New(fetch.New(fetch.Config{MinDelay: -1}), c, nil)
}

const minimalBurrow = `{"specVersion":"0.1","kind":"burrow","entries":[{"id":"readme","kind":"file","uri":"README.md"}]}`

func TestLoadBurrowFile_SynthesizesBase(t *testing.T) {
	server := newFixtureServer(map[string]string{"/docs/.burrow.json": minimalBurrow})
	defer server.Close()

	l := newTestLoader(cache.New())
	b, err := l.LoadBurrowFile(context.Background(), server.URL+"/docs/.burrow.json")
	require.NoError(t, err)

	// No declared baseUri: the manifest's own directory applies, so the
	// entry resolves inside it.
	assert.Equal(t, server.URL+"/docs/", b.BaseURI)
	assert.Equal(t, server.URL+"/docs/README.md", fetch.Resolve(b.BaseURI, b.Entries[0].URI))
}

func TestLoadBurrowFile_KeepsDeclaredBase(t *testing.T) {
	doc := `{"specVersion":"0.1","kind":"burrow","baseUri":"https://cdn.example/content/","entries":[]}`
	server := newFixtureServer(map[string]string{"/.burrow.json": doc})
	defer server.Close()

	l := newTestLoader(cache.New())
	b, err := l.LoadBurrowFile(context.Background(), server.URL+"/.burrow.json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/content/", b.BaseURI)
}

func TestLoadBurrow_ConventionOrder(t *testing.T) {
	// Both .burrow.json and burrow.json exist with different content;
	// the dotted name must win.
	server := newFixtureServer(map[string]string{
		"/docs/.burrow.json": `{"specVersion":"0.1","kind":"burrow","title":"dotted","entries":[]}`,
		"/docs/burrow.json":  `{"specVersion":"0.1","kind":"burrow","title":"bare","entries":[]}`,
	})
	defer server.Close()

	l := newTestLoader(cache.New())
	b, err := l.LoadBurrow(context.Background(), server.URL+"/docs/")
	require.NoError(t, err)
	assert.Equal(t, "dotted", b.Title)
}

func TestLoadBurrow_FallsThroughConventions(t *testing.T) {
	server := newFixtureServer(map[string]string{
		"/docs/.well-known/burrow.json": minimalBurrow,
	})
	defer server.Close()

	l := newTestLoader(cache.New())
	b, err := l.LoadBurrow(context.Background(), server.URL+"/docs/")
	require.NoError(t, err)
	assert.Len(t, b.Entries, 1)

	assert.Equal(t, []string{
		"/docs/.burrow.json",
		"/docs/burrow.json",
		"/docs/.well-known/burrow.json",
	}, server.requested())
}

func TestLoadBurrow_AllAbsent(t *testing.T) {
	server := newFixtureServer(nil)
	defer server.Close()

	l := newTestLoader(cache.New())
	_, err := l.LoadBurrow(context.Background(), server.URL+"/docs/")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestLoadBurrow_InvalidManifestSurfaces(t *testing.T) {
	server := newFixtureServer(map[string]string{
		"/docs/.burrow.json": `{"kind":"burrow","entries":[]}`,
	})
	defer server.Close()

	l := newTestLoader(cache.New())
	_, err := l.LoadBurrow(context.Background(), server.URL+"/docs/")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrInvalidManifest))
	assert.Contains(t, err.Error(), "specVersion")
}

func TestLoadBurrowFile_CachePopulation(t *testing.T) {
	server := newFixtureServer(map[string]string{"/.burrow.json": minimalBurrow})
	defer server.Close()

	l := newTestLoader(cache.New())
	ctx := context.Background()

	_, err := l.LoadBurrowFile(ctx, server.URL+"/.burrow.json")
	require.NoError(t, err)
	_, err = l.LoadBurrowFile(ctx, server.URL+"/.burrow.json")
	require.NoError(t, err)

	// Second load is a fresh cache hit: one request only.
	assert.Len(t, server.requested(), 1)
}

func TestLoadBurrowFile_StaleFallback(t *testing.T) {
	// Arrange: maxAge 1s, then step into the staleness window and make
	// the re-fetch fail.
	doc := `{"specVersion":"0.1","kind":"burrow","maxAgeSeconds":1,"title":"v1","entries":[]}`
	server := newFixtureServer(map[string]string{"/.burrow.json": doc})

	c := cache.New()
	now := time.Unix(1000, 0)
	c.SetClock(func() time.Time { return now })

	l := newTestLoader(c)
	ctx := context.Background()
	uri := server.URL + "/.burrow.json"

	b, err := l.LoadBurrowFile(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "v1", b.Title)

	now = now.Add(1500 * time.Millisecond)
	server.Close()

	// Act: record is stale, re-fetch fails, stale value comes back.
	b, err = l.LoadBurrowFile(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "v1", b.Title)
}

func TestLoadWarrenFile(t *testing.T) {
	doc := `{"specVersion":"0.1","kind":"warren","burrows":[{"uri":"https://a.example/docs/"}]}`
	server := newFixtureServer(map[string]string{"/.warren.json": doc})
	defer server.Close()

	l := newTestLoader(cache.New())
	w, err := l.LoadWarrenFile(context.Background(), server.URL+"/.warren.json")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", w.BaseURI)
	assert.Len(t, w.Burrows, 1)
}

func TestLoadBurrow_LocalFilesystem(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".burrow.json"), []byte(minimalBurrow), 0o644))

	l := newTestLoader(cache.New())
	b, err := l.LoadBurrow(context.Background(), dir+"/")
	require.NoError(t, err)
	assert.Equal(t, dir+"/", b.BaseURI)
}
