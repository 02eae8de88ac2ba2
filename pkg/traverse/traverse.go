// Package traverse walks a burrow's entry graph with an explicit work
// queue, bounding depth, entry count, and cycles. Strategy selection
// changes dequeue order only; given a fixed graph the emission order is
// deterministic and independent of fetch timing, because a child
// manifest is fully resolved before any of its entries are enqueued.
package traverse

import (
	"context"

	"go.uber.org/zap"

	"github.com/rabit-sh/rabit/pkg/fetch"
	"github.com/rabit-sh/rabit/pkg/integrity"
	"github.com/rabit-sh/rabit/pkg/loader"
	"github.com/rabit-sh/rabit/pkg/types"
)

// Strategy selects the dequeue order of the walk.
type Strategy string

const (
	BreadthFirst  Strategy = "bfs"
	DepthFirst    Strategy = "dfs"
	PriorityFirst Strategy = "priority"
)

const (
	// DefaultMaxEntries bounds how many entries one walk processes.
	DefaultMaxEntries = 100000
	// MaxDepthCeiling is the hard depth limit; requested depths above
	// it are clamped, never honored.
	MaxDepthCeiling = 100
)

// EventType tags one traversal event.
type EventType string

const (
	// EventEntry is the single visit event for an entry.
	EventEntry EventType = "entry"
	// EventCycleSkip marks an entry whose dedup key was already
	// visited; it is not descended into again.
	EventCycleSkip EventType = "cycle-skip"
	// EventDepthLimit marks an entry dequeued beyond the depth bound.
	EventDepthLimit EventType = "depth-limit"
	// EventError reports a leaf content fetch or integrity failure.
	// The walk continues past it.
	EventError EventType = "error"
)

// Event is emitted once per visited node.
type Event struct {
	Type  EventType
	Entry types.Entry
	Depth int
	// URI is the entry's URI resolved against its burrow's base.
	URI string
	// Content holds leaf bytes when content fetching is enabled.
	Content []byte
	Err     error
}

// Visitor receives traversal events. Returning an error stops the walk
// and surfaces the error to the caller.
type Visitor func(Event) error

// Options configures one walk. The zero value of MaxEntries really
// means zero: such a walk emits no entry events. Use DefaultOptions for
// the documented defaults.
type Options struct {
	Strategy   Strategy
	MaxDepth   int // <=0 or >ceiling clamps to MaxDepthCeiling
	MaxEntries int // negative selects DefaultMaxEntries

	// FetchContent fetches file-entry bytes and verifies declared
	// digests, emitting error events on failure.
	FetchContent bool
}

// DefaultOptions returns the documented defaults: breadth-first, depth
// 100, 100k entries, no content fetching.
func DefaultOptions() Options {
	return Options{
		Strategy:   BreadthFirst,
		MaxDepth:   MaxDepthCeiling,
		MaxEntries: DefaultMaxEntries,
	}
}

// Engine walks burrow graphs.
type Engine struct {
	loader  *loader.Loader
	fetcher *fetch.Fetcher
	log     *zap.Logger
}

// New creates a traversal engine. The fetcher may be nil when content
// fetching is never requested.
func New(l *loader.Loader, f *fetch.Fetcher, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{loader: l, fetcher: f, log: log}
}

// Traverse walks b and emits one event per visited node to visit.
func (e *Engine) Traverse(ctx context.Context, b *types.Burrow, opts Options, visit Visitor) error {
	w := e.newWalk(opts, visit)
	w.enqueue(b.Entries, 0, b.BaseURI)
	return w.run(ctx)
}

// TraverseWarren fans out over a warren's burrow references, walking
// each under one shared entry budget and visited set, then recurses
// into nested warrens. Warren references that fail to load are skipped.
func (e *Engine) TraverseWarren(ctx context.Context, warren *types.Warren, opts Options, visit Visitor) error {
	w := e.newWalk(opts, visit)
	return e.walkWarren(ctx, warren, w, map[string]bool{})
}

func (e *Engine) walkWarren(ctx context.Context, warren *types.Warren, w *walk, seen map[string]bool) error {
	for _, ref := range warren.Burrows {
		if err := ctx.Err(); err != nil {
			return err
		}
		resolved := fetch.Resolve(warren.BaseURI, ref.URI)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		b, err := e.loadBurrowRef(ctx, resolved)
		if err != nil {
			e.log.Debug("skipping unloadable burrow reference",
				zap.String("uri", resolved), zap.Error(err))
			continue
		}
		w.enqueue(b.Entries, 0, b.BaseURI)
		if err := w.run(ctx); err != nil {
			return err
		}
	}
	for _, ref := range warren.Warrens {
		resolved := fetch.Resolve(warren.BaseURI, ref.URI)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		child, err := e.loadWarrenRef(ctx, resolved)
		if err != nil {
			e.log.Debug("skipping unloadable warren reference",
				zap.String("uri", resolved), zap.Error(err))
			continue
		}
		if err := e.walkWarren(ctx, child, w, seen); err != nil {
			return err
		}
	}
	return nil
}

// loadBurrowRef loads a reference that may point at a manifest file or
// at a directory-like location.
func (e *Engine) loadBurrowRef(ctx context.Context, uri string) (*types.Burrow, error) {
	if fetch.NormalizeDir(uri) == uri && !isDirLike(uri) {
		return e.loader.LoadBurrowFile(ctx, uri)
	}
	return e.loader.LoadBurrow(ctx, fetch.NormalizeDir(uri))
}

func (e *Engine) loadWarrenRef(ctx context.Context, uri string) (*types.Warren, error) {
	if fetch.NormalizeDir(uri) == uri && !isDirLike(uri) {
		return e.loader.LoadWarrenFile(ctx, uri)
	}
	return e.loader.LoadWarren(ctx, fetch.NormalizeDir(uri))
}

func isDirLike(uri string) bool {
	return len(uri) > 0 && uri[len(uri)-1] == '/'
}

// node is one queued (entry, depth) pair.
type node struct {
	entry types.Entry
	depth int
	base  string
}

type walk struct {
	engine     *Engine
	visit      Visitor
	strategy   Strategy
	maxDepth   int
	maxEntries int
	fetchBody  bool

	queue     []node
	visited   map[string]bool
	processed int
}

func (e *Engine) newWalk(opts Options, visit Visitor) *walk {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 || maxDepth > MaxDepthCeiling {
		maxDepth = MaxDepthCeiling
	}
	maxEntries := opts.MaxEntries
	if maxEntries < 0 {
		maxEntries = DefaultMaxEntries
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = BreadthFirst
	}
	return &walk{
		engine:     e,
		visit:      visit,
		strategy:   strategy,
		maxDepth:   maxDepth,
		maxEntries: maxEntries,
		fetchBody:  opts.FetchContent,
		visited:    make(map[string]bool),
	}
}

// enqueue appends a sibling batch. Priority-first sorts the batch by
// descending priority before it goes on the queue, at the root and at
// every expansion alike. The sort is stable so equal priorities keep
// manifest order.
func (w *walk) enqueue(entries []types.Entry, depth int, base string) {
	if len(entries) == 0 {
		return
	}
	batch := make([]node, len(entries))
	for i, entry := range entries {
		batch[i] = node{entry: entry, depth: depth, base: base}
	}
	if w.strategy == PriorityFirst {
		stableSortByPriority(batch)
	}
	w.queue = append(w.queue, batch...)
}

func stableSortByPriority(batch []node) {
	// Insertion sort keeps equal-priority order without a comparator
	// allocation; sibling batches are small.
	for i := 1; i < len(batch); i++ {
		for j := i; j > 0 && batch[j].entry.Priority > batch[j-1].entry.Priority; j-- {
			batch[j], batch[j-1] = batch[j-1], batch[j]
		}
	}
}

func (w *walk) run(ctx context.Context) error {
	for len(w.queue) > 0 && w.processed < w.maxEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		var n node
		if w.strategy == DepthFirst {
			n = w.queue[len(w.queue)-1]
			w.queue = w.queue[:len(w.queue)-1]
		} else {
			n = w.queue[0]
			w.queue = w.queue[1:]
		}

		resolved := fetch.Resolve(n.base, n.entry.URI)
		key := n.entry.ID + ":" + resolved

		if w.visited[key] {
			if err := w.visit(Event{Type: EventCycleSkip, Entry: n.entry, Depth: n.depth, URI: resolved}); err != nil {
				return err
			}
			continue
		}
		if n.depth > w.maxDepth {
			if err := w.visit(Event{Type: EventDepthLimit, Entry: n.entry, Depth: n.depth, URI: resolved}); err != nil {
				return err
			}
			continue
		}

		w.visited[key] = true
		if err := w.emitEntry(ctx, n, resolved); err != nil {
			return err
		}
		w.processed++

		w.expand(ctx, n, resolved)
	}
	return nil
}

// emitEntry emits the visit event, fetching and verifying leaf content
// when enabled. A fetch or integrity failure is reported as a separate
// error event after the entry event, never as a walk failure.
func (w *walk) emitEntry(ctx context.Context, n node, resolved string) error {
	ev := Event{Type: EventEntry, Entry: n.entry, Depth: n.depth, URI: resolved}
	var fetchErr error
	if w.fetchBody && n.entry.Kind == types.EntryFile && w.engine.fetcher != nil {
		data, err := w.engine.fetcher.Bytes(ctx, resolved)
		if err == nil {
			err = integrity.VerifyEntry(data, n.entry)
		}
		if err != nil {
			fetchErr = err
		} else {
			ev.Content = data
		}
	}
	if err := w.visit(ev); err != nil {
		return err
	}
	if fetchErr != nil {
		return w.visit(Event{Type: EventError, Entry: n.entry, Depth: n.depth, URI: resolved, Err: fetchErr})
	}
	return nil
}

// expand enqueues a node's children. burrow and dir entries resolve via
// the discovery naming convention at the entry's directory; map entries
// load the entry URI directly as a manifest file. The two rules are
// never interchanged. A child-load failure prunes that branch without
// failing the walk.
func (w *walk) expand(ctx context.Context, n node, resolved string) {
	if n.depth >= w.maxDepth {
		return
	}
	var (
		child *types.Burrow
		err   error
	)
	switch n.entry.Kind {
	case types.EntryBurrow, types.EntryDir:
		child, err = w.engine.loader.LoadBurrow(ctx, fetch.NormalizeDir(resolved))
	case types.EntryMap:
		child, err = w.engine.loader.LoadBurrowFile(ctx, resolved)
	default:
		return
	}
	if err != nil {
		w.engine.log.Debug("child expansion failed, pruning branch",
			zap.String("id", n.entry.ID), zap.String("uri", resolved), zap.Error(err))
		return
	}
	w.enqueue(child.Entries, n.depth+1, child.BaseURI)
}
