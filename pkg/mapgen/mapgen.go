// Package mapgen generates a burrow manifest from a local directory.
package mapgen

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/rabit-sh/rabit/pkg/integrity"
	"github.com/rabit-sh/rabit/pkg/types"
)

// SpecVersion is stamped on generated manifests.
const SpecVersion = "0.1"

// Options configures manifest generation.
type Options struct {
	Title         string
	Description   string
	BaseURI       string // optional explicit base; omitted otherwise
	IncludeHidden bool
	Digest        bool  // compute sha256 for file entries
	MaxFileSize   int64 // skip larger files; 0 = no limit
}

// Generate builds a burrow listing the immediate contents of root.
// Subdirectories become dir entries so the result stays traversable by
// convention. Hidden names are skipped unless requested, and .gitignore
// patterns at root are honored.
func Generate(root string, opts Options) (*types.Burrow, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var ignore *gitignore.GitIgnore
	if _, err := os.Stat(filepath.Join(root, ".gitignore")); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	}

	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var entries []types.Entry
	for _, d := range dirents {
		name := d.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if ignore != nil {
			// Directory-only patterns like "build/" need the slash.
			matchName := name
			if d.IsDir() {
				matchName += "/"
			}
			if ignore.MatchesPath(matchName) {
				continue
			}
		}

		if d.IsDir() {
			entries = append(entries, types.Entry{
				ID:   entryID(name),
				Kind: types.EntryDir,
				URI:  name + "/",
			})
			continue
		}

		fi, err := d.Info()
		if err != nil {
			continue
		}
		if opts.MaxFileSize > 0 && fi.Size() > opts.MaxFileSize {
			continue
		}
		entry := types.Entry{
			ID:        entryID(name),
			Kind:      types.EntryFile,
			URI:       name,
			SizeBytes: fi.Size(),
			MediaType: mediaType(name),
		}
		if opts.Digest {
			data, err := os.ReadFile(filepath.Join(root, name))
			if err != nil {
				continue
			}
			entry.SHA256 = integrity.Digest(data)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	title := opts.Title
	if title == "" {
		title = filepath.Base(root)
	}
	return &types.Burrow{
		SpecVersion: SpecVersion,
		Kind:        types.KindBurrow,
		Title:       title,
		Description: opts.Description,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
		BaseURI:     opts.BaseURI,
		Entries:     entries,
	}, nil
}

// Write marshals b and writes it to path (conventionally .burrow.json).
func Write(b *types.Burrow, path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// entryID derives a stable entry ID from a file name.
func entryID(name string) string {
	id := strings.ToLower(name)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	id = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, id)
	if id == "" {
		id = strings.ToLower(name)
	}
	return id
}

func mediaType(name string) string {
	mt := mime.TypeByExtension(filepath.Ext(name))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return mt
}
