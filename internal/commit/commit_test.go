package commit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grit/internal/errors"
	"grit/internal/object"
	"grit/shared/types"
)

func setupTestGraph(t *testing.T) (*Graph, *object.FileStore) {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests

	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dir := t.TempDir()
	store, err := object.NewFileStore(filepath.Join(dir, "objects"), db)
	require.NoError(t, err)

	graph := NewGraph(store, filepath.Join(dir, "HEAD"))
	return graph, store
}

// makeCommit persists a commit on top of the current HEAD and advances
// HEAD, mirroring what the repository facade does.
func makeCommit(t *testing.T, g *Graph, message string, files []shared.Entry) string {
	t.Helper()

	parent, err := g.Head()
	require.NoError(t, err)

	hash, err := g.Persist(g.Create(message, files, parent))
	require.NoError(t, err)
	require.NoError(t, g.SetHead(hash))

	return hash
}

func TestGraph(t *testing.T) {
	t.Run("HeadEmptyOnFreshRepo", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		head, err := graph.Head()
		require.NoError(t, err)
		assert.Empty(t, head)
	})

	t.Run("PersistGetRoundTrip", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		files := []shared.Entry{{Path: "a.txt", Hash: "abc"}}
		c := graph.Create("first", files, "")
		assert.NotEmpty(t, c.Timestamp)
		assert.Empty(t, c.Parent)

		hash, err := graph.Persist(c)
		require.NoError(t, err)

		got, err := graph.Get(hash)
		require.NoError(t, err)
		assert.Equal(t, c.Message, got.Message)
		assert.Equal(t, c.Timestamp, got.Timestamp)
		assert.Equal(t, files, got.Files)
	})

	t.Run("GetMissingCommit", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		_, err := graph.Get("0000000000000000000000000000000000000000")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})

	t.Run("MalformedCommitIsCorrupt", func(t *testing.T) {
		graph, store := setupTestGraph(t)

		hash, err := store.Put([]byte("this is a blob, not a commit"))
		require.NoError(t, err)

		_, err = graph.Get(hash)
		assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptHistory))
	})

	t.Run("CommitLinkage", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		first := makeCommit(t, graph, "first", []shared.Entry{{Path: "a", Hash: "1"}})
		second := makeCommit(t, graph, "second", []shared.Entry{{Path: "a", Hash: "2"}})

		c, err := graph.Get(second)
		require.NoError(t, err)
		assert.Equal(t, first, c.Parent)

		parent, err := graph.Get(c.Parent)
		require.NoError(t, err)
		assert.Equal(t, "first", parent.Message)
	})

	t.Run("WalkYieldsHistoryNewestFirst", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		var hashes []string
		for _, msg := range []string{"one", "two", "three"} {
			hashes = append(hashes, makeCommit(t, graph, msg, []shared.Entry{{Path: "f", Hash: msg}}))
		}

		var messages []string
		var seen []string
		err := graph.Walk(func(hash string, c *Commit) error {
			seen = append(seen, hash)
			messages = append(messages, c.Message)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"three", "two", "one"}, messages)
		assert.Equal(t, []string{hashes[2], hashes[1], hashes[0]}, seen)
	})

	t.Run("WalkIsRestartable", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		makeCommit(t, graph, "only", []shared.Entry{{Path: "f", Hash: "h"}})

		for i := 0; i < 2; i++ {
			count := 0
			err := graph.Walk(func(string, *Commit) error {
				count++
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		}
	})

	t.Run("WalkEmptyHistory", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		err := graph.Walk(func(string, *Commit) error {
			t.Fatal("callback should not run on empty history")
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("WalkBrokenParentIsCorruptHistory", func(t *testing.T) {
		opts := badger.DefaultOptions("").WithInMemory(true)
		opts.Logger = nil
		db, err := badger.Open(opts)
		require.NoError(t, err)
		defer db.Close()

		dir := t.TempDir()
		objectsDir := filepath.Join(dir, "objects")
		headPath := filepath.Join(dir, "HEAD")

		store, err := object.NewFileStore(objectsDir, db)
		require.NoError(t, err)
		graph := NewGraph(store, headPath)

		first := makeCommit(t, graph, "first", []shared.Entry{{Path: "f", Hash: "1"}})
		makeCommit(t, graph, "second", []shared.Entry{{Path: "f", Hash: "2"}})

		// Deliberately corrupt history by deleting the first commit object
		require.NoError(t, os.Remove(filepath.Join(objectsDir, first)))

		// Fresh store so the removed object is not served from cache
		coldStore, err := object.NewFileStore(objectsDir, db)
		require.NoError(t, err)
		coldGraph := NewGraph(coldStore, headPath)

		var delivered []string
		err = coldGraph.Walk(func(hash string, c *Commit) error {
			delivered = append(delivered, c.Message)
			return nil
		})

		assert.True(t, errors.IsType(err, errors.ErrorTypeCorruptHistory))
		// The commit before the break was still delivered
		assert.Equal(t, []string{"second"}, delivered)
	})

	t.Run("SetHeadRereadable", func(t *testing.T) {
		graph, _ := setupTestGraph(t)

		require.NoError(t, graph.SetHead("abc123"))

		head, err := graph.Head()
		require.NoError(t, err)
		assert.Equal(t, "abc123", head)
	})
}
