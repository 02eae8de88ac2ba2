package rabit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabit-sh/rabit/pkg/integrity"
	"github.com/rabit-sh/rabit/pkg/types"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(WithoutGitFallback(), WithMinDelay(-1))
	require.NoError(t, err)
	return client
}

// writeTree lays out a burrow tree on disk:
//
//	root/.burrow.json     -> intro.md + a dir entry for sub/
//	root/sub/.burrow.json -> deep.md
func writeTree(t *testing.T) (root string, introBody string) {
	t.Helper()
	root = t.TempDir()
	introBody = "# intro\n"

	sum := integrity.Digest([]byte(introBody))
	rootManifest := `{"specVersion":"0.1","kind":"burrow","title":"root","entries":[
		{"id":"intro","kind":"file","uri":"intro.md","sha256":"` + sum + `"},
		{"id":"sub","kind":"dir","uri":"sub/"}]}`
	subManifest := `{"specVersion":"0.1","kind":"burrow","entries":[
		{"id":"deep","kind":"file","uri":"deep.md"}]}`

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".burrow.json"), []byte(rootManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "intro.md"), []byte(introBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", ".burrow.json"), []byte(subManifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deep.md"), []byte("deep"), 0o644))
	return root, introBody
}

func TestNewClient_Options(t *testing.T) {
	client, err := NewClient(
		WithoutGitFallback(),
		WithMaxConcurrent(3),
		WithGitCacheDir(t.TempDir()),
	)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestClient_Discover(t *testing.T) {
	root, _ := writeTree(t)
	client := newTestClient(t)

	// From a nested location the walk finds the manifest one level up.
	res, err := client.Discover(context.Background(), filepath.Join(root, "sub", "nowhere")+"/")
	require.NoError(t, err)

	require.True(t, res.Found())
	require.NotNil(t, res.Burrow)
	assert.Equal(t, "deep", res.Burrow.Entries[0].ID)
}

func TestClient_LoadBurrow(t *testing.T) {
	root, _ := writeTree(t)
	client := newTestClient(t)

	b, err := client.LoadBurrow(context.Background(), root+"/")
	require.NoError(t, err)
	assert.Equal(t, "root", b.Title)
	assert.Len(t, b.Entries, 2)
}

func TestClient_FetchEntry(t *testing.T) {
	root, introBody := writeTree(t)
	client := newTestClient(t)
	ctx := context.Background()

	b, err := client.LoadBurrow(ctx, root+"/")
	require.NoError(t, err)

	data, err := client.FetchEntry(ctx, b, b.Entries[0])
	require.NoError(t, err)
	assert.Equal(t, []byte(introBody), data)
}

func TestClient_FetchEntryHashMismatch(t *testing.T) {
	root, _ := writeTree(t)
	client := newTestClient(t)
	ctx := context.Background()

	b, err := client.LoadBurrow(ctx, root+"/")
	require.NoError(t, err)

	entry := b.Entries[0]
	entry.SHA256 = "0000000000000000000000000000000000000000000000000000000000000000"
	_, err = client.FetchEntry(ctx, b, entry)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrHashMismatch))
}

func TestClient_Traverse(t *testing.T) {
	root, _ := writeTree(t)
	client := newTestClient(t)
	ctx := context.Background()

	b, err := client.LoadBurrow(ctx, root+"/")
	require.NoError(t, err)

	var ids []string
	err = client.Traverse(ctx, b, DefaultTraverseOptions(), func(ev Event) error {
		ids = append(ids, ev.Entry.ID)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "sub", "deep"}, ids)
}

func TestClient_Fetch(t *testing.T) {
	root, introBody := writeTree(t)
	client := newTestClient(t)

	data, err := client.Fetch(context.Background(), filepath.Join(root, "intro.md"))
	require.NoError(t, err)
	assert.Equal(t, []byte(introBody), data)
}
