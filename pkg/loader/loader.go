// Package loader fetches and validates burrow/warren manifests,
// normalizing their base location and keeping the manifest cache warm.
package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/rabit-sh/rabit/pkg/cache"
	"github.com/rabit-sh/rabit/pkg/fetch"
	"github.com/rabit-sh/rabit/pkg/types"
)

// Discovery-convention manifest names, tried in this exact order.
var (
	BurrowNames = []string{".burrow.json", "burrow.json", ".well-known/burrow.json"}
	WarrenNames = []string{".warren.json", "warren.json", ".well-known/warren.json"}
)

// Loader turns locations into validated manifests.
type Loader struct {
	fetcher *fetch.Fetcher
	cache   *cache.Cache
	log     *zap.Logger
}

// New creates a Loader. A nil cache disables caching.
func New(fetcher *fetch.Fetcher, c *cache.Cache, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fetcher: fetcher, cache: c, log: log}
}

// LoadBurrow locates a burrow at a directory-like location by trying the
// discovery-convention names in order. A not-found from one candidate is
// treated as absent and the next candidate is tried; any other failure
// is surfaced immediately.
func (l *Loader) LoadBurrow(ctx context.Context, location string) (*types.Burrow, error) {
	for _, name := range BurrowNames {
		target := fetch.Resolve(location, name)
		b, err := l.LoadBurrowFile(ctx, target)
		if err != nil {
			if types.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return b, nil
	}
	return nil, types.Errorf(types.ErrNotFound, location, "no burrow manifest at this location")
}

// LoadWarren locates a warren at a directory-like location, mirroring
// LoadBurrow's convention order.
func (l *Loader) LoadWarren(ctx context.Context, location string) (*types.Warren, error) {
	for _, name := range WarrenNames {
		target := fetch.Resolve(location, name)
		w, err := l.LoadWarrenFile(ctx, target)
		if err != nil {
			if types.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		return w, nil
	}
	return nil, types.Errorf(types.ErrNotFound, location, "no warren manifest at this location")
}

// LoadBurrowFile loads an exact manifest file with no convention
// suffixing. Map entries resolve through this path.
func (l *Loader) LoadBurrowFile(ctx context.Context, uri string) (*types.Burrow, error) {
	if m, ok := l.cached(uri, types.KindBurrow); ok {
		return m.(*types.Burrow), nil
	}
	stale, hasStale := l.staleFallback(uri, types.KindBurrow)

	data, err := l.fetcher.Bytes(ctx, uri)
	if err != nil {
		if hasStale {
			l.log.Debug("re-fetch failed, serving stale manifest", zap.String("uri", uri), zap.Error(err))
			return stale.(*types.Burrow), nil
		}
		return nil, err
	}
	b, err := types.ParseBurrow(data, uri)
	if err != nil {
		return nil, err
	}
	if b.BaseURI == "" {
		b.BaseURI = fetch.DirectoryOf(uri)
	}
	if l.cache != nil {
		l.cache.Set(uri, b, b.MaxAge())
	}
	return b, nil
}

// LoadWarrenFile loads an exact warren manifest file.
func (l *Loader) LoadWarrenFile(ctx context.Context, uri string) (*types.Warren, error) {
	if m, ok := l.cached(uri, types.KindWarren); ok {
		return m.(*types.Warren), nil
	}
	stale, hasStale := l.staleFallback(uri, types.KindWarren)

	data, err := l.fetcher.Bytes(ctx, uri)
	if err != nil {
		if hasStale {
			l.log.Debug("re-fetch failed, serving stale manifest", zap.String("uri", uri), zap.Error(err))
			return stale.(*types.Warren), nil
		}
		return nil, err
	}
	w, err := types.ParseWarren(data, uri)
	if err != nil {
		return nil, err
	}
	if w.BaseURI == "" {
		w.BaseURI = fetch.DirectoryOf(uri)
	}
	if l.cache != nil {
		l.cache.Set(uri, w, w.MaxAge())
	}
	return w, nil
}

// cached returns a fresh cache hit of the wanted kind.
func (l *Loader) cached(uri string, kind types.ManifestKind) (types.Manifest, bool) {
	if l.cache == nil {
		return nil, false
	}
	m, stale, ok := l.cache.Get(uri)
	if !ok || stale || m.ManifestKind() != kind {
		return nil, false
	}
	return m, true
}

// staleFallback returns a stale cache hit usable if the re-fetch fails.
func (l *Loader) staleFallback(uri string, kind types.ManifestKind) (types.Manifest, bool) {
	if l.cache == nil {
		return nil, false
	}
	m, stale, ok := l.cache.Get(uri)
	if !ok || !stale || m.ManifestKind() != kind {
		return nil, false
	}
	return m, true
}
