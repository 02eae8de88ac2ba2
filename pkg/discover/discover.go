// Package discover locates burrow and warren manifests by probing
// well-known names at a starting location and, when nothing is found,
// walking up the syntactic parents.
package discover

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rabit-sh/rabit/pkg/fetch"
	"github.com/rabit-sh/rabit/pkg/loader"
	"github.com/rabit-sh/rabit/pkg/types"
)

// DefaultMaxParentWalk bounds how many parent locations are probed
// beyond the start.
const DefaultMaxParentWalk = 2

// Options configures one discovery call.
type Options struct {
	// MaxParentWalk is the number of parent levels to probe after the
	// starting location. The zero value selects the default; negative
	// probes the starting location only.
	MaxParentWalk int
}

// Result is the outcome of discovery. Either or both manifests may be
// set when found; Depth is the parent level they were found at, or -1
// when every location was exhausted.
type Result struct {
	Warren  *types.Warren
	Burrow  *types.Burrow
	BaseURI string
	Depth   int
}

// Found reports whether discovery located any manifest.
func (r *Result) Found() bool {
	return r.Depth >= 0
}

// Engine runs discovery against a loader.
type Engine struct {
	loader *loader.Loader
	log    *zap.Logger
}

// New creates a discovery engine.
func New(l *loader.Loader, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{loader: l, log: log}
}

// Discover probes startURI and up to opts.MaxParentWalk parents for a
// warren or burrow. Warren and burrow probes at a location run
// independently; a location may host both. Failures at one location are
// soft signals to continue; only exhaustion yields Depth -1.
func (e *Engine) Discover(ctx context.Context, startURI string, opts Options) (*Result, error) {
	maxWalk := opts.MaxParentWalk
	if maxWalk == 0 {
		maxWalk = DefaultMaxParentWalk
	} else if maxWalk < 0 {
		maxWalk = 0
	}

	location := fetch.NormalizeDir(startURI)
	for depth := 0; depth <= maxWalk; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			wg        sync.WaitGroup
			warren    *types.Warren
			burrow    *types.Burrow
			warrenErr error
			burrowErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			warren, warrenErr = e.loader.LoadWarren(ctx, location)
		}()
		go func() {
			defer wg.Done()
			burrow, burrowErr = e.loader.LoadBurrow(ctx, location)
		}()
		wg.Wait()

		if warrenErr != nil && !types.IsNotFound(warrenErr) {
			e.log.Debug("warren probe failed", zap.String("location", location), zap.Error(warrenErr))
		}
		if burrowErr != nil && !types.IsNotFound(burrowErr) {
			e.log.Debug("burrow probe failed", zap.String("location", location), zap.Error(burrowErr))
		}

		if warren != nil || burrow != nil {
			base := location
			if burrow != nil {
				base = burrow.BaseURI
			} else if warren.BaseURI != "" {
				base = warren.BaseURI
			}
			return &Result{Warren: warren, Burrow: burrow, BaseURI: base, Depth: depth}, nil
		}

		parent := fetch.Parent(location)
		if parent == "" || parent == location {
			break
		}
		location = parent
	}
	return &Result{Depth: -1}, nil
}
