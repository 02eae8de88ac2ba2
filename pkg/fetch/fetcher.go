package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/rabit-sh/rabit/pkg/gitcache"
	"github.com/rabit-sh/rabit/pkg/types"
)

const (
	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxResponseBytes caps how much a single fetch may return.
	DefaultMaxResponseBytes = 10 << 20
)

const userAgent = "rabit"

// Config configures a Fetcher. Zero values select the defaults; a
// negative MinDelay disables inter-request spacing entirely.
type Config struct {
	MaxConcurrent    int
	MinDelay         time.Duration
	Timeout          time.Duration
	MaxResponseBytes int64

	// HTTPClient overrides the default pooled client (tests).
	HTTPClient *http.Client

	// GitCache enables the clone fallback for recognized raw-content
	// URLs. Nil disables the fallback.
	GitCache *gitcache.Cache

	Logger *zap.Logger
}

// Fetcher retrieves bytes and text for a URI, dispatching on transport
// classification. HTTP(S) requests are rate limited and size capped;
// recognized git-hosting raw URLs fall back to a local clone when the
// direct fetch fails.
type Fetcher struct {
	client   *http.Client
	limiter  *Limiter
	maxBytes int64
	git      *gitcache.Cache
	log      *zap.Logger
}

// New creates a Fetcher from cfg.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
		client.Timeout = timeout
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}
	minDelay := cfg.MinDelay
	if minDelay == 0 {
		minDelay = DefaultMinDelay
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client:   client,
		limiter:  NewLimiter(cfg.MaxConcurrent, minDelay),
		maxBytes: maxBytes,
		git:      cfg.GitCache,
		log:      log,
	}
}

// Limiter exposes the fetcher's rate limiter for callers that perform
// their own outbound work under the same ceiling.
func (f *Fetcher) Limiter() *Limiter {
	return f.limiter
}

// Text fetches uri and returns its content as a string.
func (f *Fetcher) Text(ctx context.Context, uri string) (string, error) {
	data, err := f.Bytes(ctx, uri)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Bytes fetches the content at uri.
func (f *Fetcher) Bytes(ctx context.Context, uri string) ([]byte, error) {
	switch Classify(uri) {
	case TransportFile:
		return f.readFile(uri)
	case TransportHTTP, TransportHTTPS, TransportGit:
		return f.fetchNetwork(ctx, uri)
	default:
		return nil, types.Errorf(types.ErrTransport, uri, "unsupported transport %q", Classify(uri))
	}
}

func (f *Fetcher) readFile(uri string) ([]byte, error) {
	path := FilePath(uri)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.WrapError(types.ErrNotFound, uri, err)
		}
		return nil, types.WrapError(types.ErrTransport, uri, err)
	}
	return data, nil
}

// fetchNetwork tries the direct HTTP path first, then the git clone
// fallback when the URI matches a recognized raw-content pattern. If the
// git path was attempted and failed, its error wins (it was the last
// attempt); otherwise the original HTTP error surfaces.
func (f *Fetcher) fetchNetwork(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if Classify(uri) == TransportGit && !schemePattern.MatchString(uri) {
		return nil, types.Errorf(types.ErrTransport, uri, "git transport requires an http(s) raw-content URL")
	}

	data, httpErr := f.fetchHTTP(ctx, target)
	if httpErr == nil {
		return data, nil
	}
	if f.git == nil {
		return nil, httpErr
	}
	ref, ok := ParseRawURL(target)
	if !ok {
		return nil, httpErr
	}

	f.log.Debug("direct fetch failed, trying git clone fallback",
		zap.String("uri", uri), zap.String("repo", ref.CloneURL), zap.Error(httpErr))
	data, gitErr := f.fetchViaGit(ctx, uri, ref)
	if gitErr != nil {
		return nil, gitErr
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	if err := f.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.limiter.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, types.WrapError(types.ErrTransport, uri, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, types.WrapError(types.ErrTransport, uri, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, types.Errorf(types.ErrNotFound, uri, "HTTP 404")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.Errorf(types.ErrRateLimited, uri, "HTTP 429")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, types.Errorf(types.ErrTransport, uri, "HTTP %d", resp.StatusCode)
	}

	// Reject oversized responses before consuming the body.
	if resp.ContentLength > f.maxBytes {
		return nil, types.Errorf(types.ErrOversized, uri,
			"content length %d exceeds limit %d", resp.ContentLength, f.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, types.WrapError(types.ErrTransport, uri, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, types.Errorf(types.ErrOversized, uri, "response exceeds limit %d", f.maxBytes)
	}
	return data, nil
}

func (f *Fetcher) fetchViaGit(ctx context.Context, uri string, ref RepoRef) ([]byte, error) {
	if err := f.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer f.limiter.Release()

	dir, err := f.git.Checkout(ctx, ref.CloneURL, ref.Branch)
	if err != nil {
		return nil, types.WrapError(types.ErrTransport, uri, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref.Path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.Errorf(types.ErrNotFound, uri,
				"%s not present in %s@%s", ref.Path, ref.CloneURL, ref.Branch)
		}
		return nil, types.WrapError(types.ErrTransport, uri, fmt.Errorf("reading from clone: %w", err))
	}
	return data, nil
}
