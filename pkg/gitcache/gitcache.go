// Package gitcache maintains a keyed on-disk cache of shallow git
// clones under the user's state directory. Clones are created on first
// access and refreshed in place afterwards; the cache never deletes a
// completed clone, so repositories persist across process runs.
package gitcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

const (
	stateEnv    = "RABIT_STATE_HOME"
	xdgStateEnv = "XDG_STATE_HOME"
)

// Cache maps repository URLs to local shallow clones.
//
// Each repository directory is guarded by its own in-process mutex so
// concurrent lookups of the same repository serialize on clone/refresh
// rather than racing on the directory.
type Cache struct {
	root string
	log  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a cache rooted at root. An empty root resolves the
// default state location.
func New(root string, log *zap.Logger) (*Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if root == "" {
		r, err := DefaultRoot()
		if err != nil {
			return nil, err
		}
		root = r
	}
	return &Cache{root: root, log: log, locks: make(map[string]*sync.Mutex)}, nil
}

// DefaultRoot resolves the clone cache directory: $RABIT_STATE_HOME/repos,
// then $XDG_STATE_HOME/rabit/repos, then ~/.local/state/rabit/repos.
func DefaultRoot() (string, error) {
	if v := os.Getenv(stateEnv); v != "" {
		return filepath.Join(v, "repos"), nil
	}
	if v := os.Getenv(xdgStateEnv); v != "" {
		return filepath.Join(v, "rabit", "repos"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "state", "rabit", "repos"), nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Checkout returns the working-tree path for repoURL at branch, cloning
// on first access and refreshing (fetch + hard reset) afterwards. A
// failed refresh falls back to the existing checkout.
func (c *Cache) Checkout(ctx context.Context, repoURL, branch string) (string, error) {
	dir := c.clonePath(repoURL)
	lock := c.lockFor(dir)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		if err := c.refresh(ctx, dir, branch); err != nil {
			c.log.Debug("clone refresh failed, using existing checkout",
				zap.String("dir", dir), zap.Error(err))
		}
		return dir, nil
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("creating clone directory: %w", err)
	}
	opts := &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	c.log.Debug("cloning repository", zap.String("url", repoURL), zap.String("dir", dir))
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		// A partial clone would poison every later lookup.
		os.RemoveAll(dir)
		return "", fmt.Errorf("cloning %s: %w", repoURL, err)
	}
	return dir, nil
}

func (c *Cache) refresh(ctx context.Context, dir, branch string) error {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("opening clone: %w", err)
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: git.DefaultRemoteName,
		Depth:      1,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching updates: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, branch), true)
	if err != nil {
		return fmt.Errorf("resolving origin/%s: %w", branch, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return fmt.Errorf("resetting worktree: %w", err)
	}
	return nil
}

func (c *Cache) lockFor(dir string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[dir]
	if !ok {
		l = &sync.Mutex{}
		c.locks[dir] = l
	}
	return l
}

// clonePath maps a repository URL to its cache directory:
// <root>/<host>/<owner>/<repo> for URLs with a recognizable host and
// path, else a digest-derived directory.
func (c *Cache) clonePath(repoURL string) string {
	normalized := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")

	var host, repoPath string
	if strings.HasPrefix(normalized, "git@") {
		// git@host:owner/repo
		parts := strings.SplitN(strings.TrimPrefix(normalized, "git@"), ":", 2)
		if len(parts) == 2 {
			host, repoPath = parts[0], parts[1]
		}
	} else if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
		repoPath = strings.Trim(u.Path, "/")
	}

	if host != "" && strings.Count(repoPath, "/") >= 1 {
		return filepath.Join(c.root, host, filepath.FromSlash(repoPath))
	}

	sum := sha256.Sum256([]byte(strings.ToLower(normalized)))
	return filepath.Join(c.root, "sha256-"+hex.EncodeToString(sum[:8]))
}
