// Package rabit is a client for discovering and walking trees of
// machine-readable burrow and warren manifests published at well-known
// locations.
//
// # Basic Usage
//
// Create a client and discover the manifest for a location:
//
//	client, err := rabit.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.Discover(ctx, "https://example.com/docs/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Found() && result.Burrow != nil {
//	    for _, entry := range result.Burrow.Entries {
//	        fmt.Println(entry.ID, entry.URI)
//	    }
//	}
//
// # Traversal
//
// Walk a burrow's entry graph with bounded depth and cycle detection:
//
//	burrow, err := client.LoadBurrow(ctx, "https://example.com/docs/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts := rabit.DefaultTraverseOptions()
//	err = client.Traverse(ctx, burrow, opts, func(ev rabit.Event) error {
//	    fmt.Println(ev.Type, ev.Entry.ID)
//	    return nil
//	})
package rabit

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rabit-sh/rabit/pkg/cache"
	"github.com/rabit-sh/rabit/pkg/discover"
	"github.com/rabit-sh/rabit/pkg/fetch"
	"github.com/rabit-sh/rabit/pkg/gitcache"
	"github.com/rabit-sh/rabit/pkg/integrity"
	"github.com/rabit-sh/rabit/pkg/loader"
	"github.com/rabit-sh/rabit/pkg/traverse"
	"github.com/rabit-sh/rabit/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/rabit-sh/rabit" without subpackages.
type (
	// Burrow is a manifest listing navigable entries for one location.
	Burrow = types.Burrow

	// Warren is a registry manifest listing burrows and other warrens.
	Warren = types.Warren

	// Entry is one item inside a burrow.
	Entry = types.Entry

	// Error is the discriminated failure result for expected conditions.
	Error = types.Error

	// DiscoverResult is the outcome of manifest discovery.
	DiscoverResult = discover.Result

	// DiscoverOptions configures a discovery call.
	DiscoverOptions = discover.Options

	// TraverseOptions configures a traversal.
	TraverseOptions = traverse.Options

	// Event is one traversal event.
	Event = traverse.Event

	// Visitor receives traversal events.
	Visitor = traverse.Visitor
)

// Re-export entry kinds and traversal strategies.
const (
	EntryFile   = types.EntryFile
	EntryDir    = types.EntryDir
	EntryBurrow = types.EntryBurrow
	EntryMap    = types.EntryMap
	EntryLink   = types.EntryLink

	BreadthFirst  = traverse.BreadthFirst
	DepthFirst    = traverse.DepthFirst
	PriorityFirst = traverse.PriorityFirst
)

// DefaultTraverseOptions returns the documented traversal defaults.
func DefaultTraverseOptions() TraverseOptions {
	return traverse.DefaultOptions()
}

// Client owns its own fetcher, rate limiter, manifest cache, and clone
// cache, so multiple independently configured clients can coexist in
// one process.
type Client struct {
	fetcher   *fetch.Fetcher
	cache     *cache.Cache
	loader    *loader.Loader
	discovery *discover.Engine
	traversal *traverse.Engine
	config    *clientConfig
}

type clientConfig struct {
	maxConcurrent int
	minDelay      time.Duration
	timeout       time.Duration
	maxBytes      int64
	gitCacheDir   string
	gitFallback   bool
	httpClient    *http.Client
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithMaxConcurrent bounds in-flight outbound requests. Default 10.
func WithMaxConcurrent(n int) Option {
	return func(c *clientConfig) { c.maxConcurrent = n }
}

// WithMinDelay sets the minimum spacing between request starts.
// Default 100ms.
func WithMinDelay(d time.Duration) Option {
	return func(c *clientConfig) { c.minDelay = d }
}

// WithTimeout bounds each HTTP request. Default 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithMaxResponseBytes caps a single fetch. Default 10 MiB.
func WithMaxResponseBytes(n int64) Option {
	return func(c *clientConfig) { c.maxBytes = n }
}

// WithGitCacheDir overrides the clone cache location. Default resolves
// from RABIT_STATE_HOME, XDG_STATE_HOME, then ~/.local/state.
func WithGitCacheDir(dir string) Option {
	return func(c *clientConfig) { c.gitCacheDir = dir }
}

// WithoutGitFallback disables the git clone fallback for raw-content
// URLs.
func WithoutGitFallback() Option {
	return func(c *clientConfig) { c.gitFallback = false }
}

// WithHTTPClient substitutes the HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithLogger attaches a logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = log }
}

// NewClient creates a Client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	config := &clientConfig{
		gitFallback: true,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(config)
	}

	var gc *gitcache.Cache
	if config.gitFallback {
		var err error
		gc, err = gitcache.New(config.gitCacheDir, config.logger)
		if err != nil {
			return nil, err
		}
	}

	fetcher := fetch.New(fetch.Config{
		MaxConcurrent:    config.maxConcurrent,
		MinDelay:         config.minDelay,
		Timeout:          config.timeout,
		MaxResponseBytes: config.maxBytes,
		HTTPClient:       config.httpClient,
		GitCache:         gc,
		Logger:           config.logger,
	})
	manifestCache := cache.New()
	ld := loader.New(fetcher, manifestCache, config.logger)

	return &Client{
		fetcher:   fetcher,
		cache:     manifestCache,
		loader:    ld,
		discovery: discover.New(ld, config.logger),
		traversal: traverse.New(ld, fetcher, config.logger),
		config:    config,
	}, nil
}

// Discover probes startURI and its parents for a warren or burrow.
func (c *Client) Discover(ctx context.Context, startURI string, opts ...DiscoverOptions) (*DiscoverResult, error) {
	var o DiscoverOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return c.discovery.Discover(ctx, startURI, o)
}

// LoadBurrow locates a burrow at a directory-like location via the
// naming conventions.
func (c *Client) LoadBurrow(ctx context.Context, location string) (*Burrow, error) {
	return c.loader.LoadBurrow(ctx, location)
}

// LoadBurrowFile loads an exact burrow manifest file, bypassing the
// naming conventions.
func (c *Client) LoadBurrowFile(ctx context.Context, uri string) (*Burrow, error) {
	return c.loader.LoadBurrowFile(ctx, uri)
}

// LoadWarren locates a warren at a directory-like location.
func (c *Client) LoadWarren(ctx context.Context, location string) (*Warren, error) {
	return c.loader.LoadWarren(ctx, location)
}

// LoadWarrenFile loads an exact warren manifest file.
func (c *Client) LoadWarrenFile(ctx context.Context, uri string) (*Warren, error) {
	return c.loader.LoadWarrenFile(ctx, uri)
}

// Traverse walks a burrow's entry graph.
func (c *Client) Traverse(ctx context.Context, b *Burrow, opts TraverseOptions, visit Visitor) error {
	return c.traversal.Traverse(ctx, b, opts, visit)
}

// TraverseWarren fans out over a warren's burrow references.
func (c *Client) TraverseWarren(ctx context.Context, w *Warren, opts TraverseOptions, visit Visitor) error {
	return c.traversal.TraverseWarren(ctx, w, opts, visit)
}

// Fetch retrieves raw content at uri across any supported transport.
func (c *Client) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return c.fetcher.Bytes(ctx, uri)
}

// FetchEntry resolves an entry against its burrow's base, fetches the
// content, and verifies the declared digest when present.
func (c *Client) FetchEntry(ctx context.Context, b *Burrow, entry Entry) ([]byte, error) {
	resolved := fetch.Resolve(b.BaseURI, entry.URI)
	data, err := c.fetcher.Bytes(ctx, resolved)
	if err != nil {
		return nil, err
	}
	if err := integrity.VerifyEntry(data, entry); err != nil {
		return nil, err
	}
	return data, nil
}
