package mapgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabit-sh/rabit/pkg/integrity"
	"github.com/rabit-sh/rabit/pkg/types"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}

func entryByID(t *testing.T, b *types.Burrow, id string) types.Entry {
	t.Helper()
	for _, e := range b.Entries {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("no entry with id %q", id)
	return types.Entry{}
}

func TestGenerate(t *testing.T) {
	root := writeTree(t, map[string]string{
		"README.md":      "# readme\n",
		"guide.json":     `{"a":1}`,
		"docs/page.md":   "nested",
		".hidden":        "secret",
		"notes/draft.md": "draft",
	})

	b, err := Generate(root, Options{Title: "demo"})
	require.NoError(t, err)

	assert.Equal(t, SpecVersion, b.SpecVersion)
	assert.Equal(t, types.KindBurrow, b.Kind)
	assert.Equal(t, "demo", b.Title)
	assert.NotEmpty(t, b.UpdatedAt)

	// Immediate children only, hidden skipped, sorted by ID.
	var ids []string
	for _, e := range b.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"docs", "guide", "notes", "readme"}, ids)

	docs := entryByID(t, b, "docs")
	assert.Equal(t, types.EntryDir, docs.Kind)
	assert.Equal(t, "docs/", docs.URI)

	readme := entryByID(t, b, "readme")
	assert.Equal(t, types.EntryFile, readme.Kind)
	assert.Equal(t, "README.md", readme.URI)
	assert.Equal(t, int64(len("# readme\n")), readme.SizeBytes)

	guide := entryByID(t, b, "guide")
	assert.Equal(t, "application/json", guide.MediaType)
}

func TestGenerate_IncludeHidden(t *testing.T) {
	root := writeTree(t, map[string]string{".hidden": "x", "seen.md": "y"})

	b, err := Generate(root, Options{IncludeHidden: true})
	require.NoError(t, err)
	assert.Len(t, b.Entries, 2)
}

func TestGenerate_GitignoreHonored(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore": "*.log\nbuild/\n",
		"app.log":    "noise",
		"keep.md":    "keep",
		"build/out":  "artifact",
	})

	b, err := Generate(root, Options{})
	require.NoError(t, err)

	require.Len(t, b.Entries, 1)
	assert.Equal(t, "keep", b.Entries[0].ID)
}

func TestGenerate_Digest(t *testing.T) {
	root := writeTree(t, map[string]string{"data.md": "digest me"})

	b, err := Generate(root, Options{Digest: true})
	require.NoError(t, err)

	e := entryByID(t, b, "data")
	assert.Equal(t, integrity.Digest([]byte("digest me")), e.SHA256)
	require.NoError(t, integrity.VerifyEntry([]byte("digest me"), e))
}

func TestGenerate_MaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.md": "ok",
		"big.md":   "this one is past the limit",
	})

	b, err := Generate(root, Options{MaxFileSize: 10})
	require.NoError(t, err)

	require.Len(t, b.Entries, 1)
	assert.Equal(t, "small", b.Entries[0].ID)
}

func TestGenerate_NotADirectory(t *testing.T) {
	root := writeTree(t, map[string]string{"file.md": "x"})

	_, err := Generate(filepath.Join(root, "file.md"), Options{})
	require.Error(t, err)

	_, err = Generate(filepath.Join(root, "missing"), Options{})
	require.Error(t, err)
}

func TestWrite_RoundTrip(t *testing.T) {
	root := writeTree(t, map[string]string{"page.md": "body"})

	b, err := Generate(root, Options{Title: "rt", Digest: true})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), ".burrow.json")
	require.NoError(t, Write(b, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	parsed, err := types.ParseBurrow(data, out)
	require.NoError(t, err)
	assert.Equal(t, "rt", parsed.Title)
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, b.Entries[0].SHA256, parsed.Entries[0].SHA256)
}

func TestEntryID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"README.md", "readme"},
		{"Getting Started.md", "getting-started"},
		{"notes_v2.md", "notes_v2"},
		{"weird!!.md", "weird--"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entryID(tt.name), tt.name)
	}
}
