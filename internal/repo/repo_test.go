package repo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grit/internal/diff"
	"grit/internal/errors"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, Initialize(root))

	r, err := Open(root)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return r
}

func writeFile(t *testing.T, r *Repository, path, content string) {
	t.Helper()
	full := filepath.Join(r.Root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestInitialize(t *testing.T) {
	t.Run("CreatesLayout", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, Initialize(root))

		assert.DirExists(t, filepath.Join(root, ".grit", "objects"))
		assert.FileExists(t, filepath.Join(root, ".grit", "HEAD"))
		assert.FileExists(t, filepath.Join(root, ".grit", "index"))
		assert.FileExists(t, filepath.Join(root, ".grit", "config.json"))
	})

	t.Run("ReinitializeIsBenign", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, Initialize(root))

		err := Initialize(root)
		assert.True(t, errors.IsType(err, errors.ErrorTypeAlreadyInitialized))

		// Existing layout untouched
		assert.FileExists(t, filepath.Join(root, ".grit", "HEAD"))
	})
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Initialize(root))

	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindRoot(nested)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	foundResolved, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, resolved, foundResolved)

	_, err = FindRoot(t.TempDir())
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	t.Run("StagesFileContent", func(t *testing.T) {
		r := setupTestRepo(t)
		writeFile(t, r, "a.txt", "hello\n")

		require.NoError(t, r.Add("a.txt"))

		entries, err := r.Index.Load()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a.txt", entries[0].Path)
		// sha1("hello\n")
		assert.Equal(t, "f572d396fae9206628714fb2ce00f72e94f2258f", entries[0].Hash)
		assert.True(t, r.Objects.Exists(entries[0].Hash))
	})

	t.Run("MissingFile", func(t *testing.T) {
		r := setupTestRepo(t)

		err := r.Add("missing.txt")
		assert.True(t, errors.IsType(err, errors.ErrorTypeFileNotFound))

		// No blob written, index unchanged
		entries, err := r.Index.Load()
		require.NoError(t, err)
		assert.Empty(t, entries)

		hashes, err := r.Objects.Hashes()
		require.NoError(t, err)
		assert.Empty(t, hashes)
	})

	t.Run("IdenticalContentDeduplicates", func(t *testing.T) {
		r := setupTestRepo(t)
		writeFile(t, r, "a.txt", "same\n")
		writeFile(t, r, "b.txt", "same\n")

		require.NoError(t, r.Add("a.txt"))
		require.NoError(t, r.Add("b.txt"))

		hashes, err := r.Objects.Hashes()
		require.NoError(t, err)
		assert.Len(t, hashes, 1)

		entries, err := r.Index.Load()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, entries[0].Hash, entries[1].Hash)
	})

	t.Run("DuplicatePathKeptVerbatim", func(t *testing.T) {
		r := setupTestRepo(t)
		writeFile(t, r, "a.txt", "v1\n")
		require.NoError(t, r.Add("a.txt"))

		writeFile(t, r, "a.txt", "v2\n")
		require.NoError(t, r.Add("a.txt"))

		entries, err := r.Index.Load()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, entries[0].Path, entries[1].Path)
		assert.NotEqual(t, entries[0].Hash, entries[1].Hash)
	})
}

func TestCommit(t *testing.T) {
	t.Run("FirstCommitHasNoParent", func(t *testing.T) {
		r := setupTestRepo(t)
		writeFile(t, r, "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))

		hash, err := r.Commit("first")
		require.NoError(t, err)

		c, err := r.Graph.Get(hash)
		require.NoError(t, err)
		assert.Empty(t, c.Parent)
		assert.Equal(t, "first", c.Message)

		head, err := r.Graph.Head()
		require.NoError(t, err)
		assert.Equal(t, hash, head)

		// Index cleared atomically with the HEAD update
		entries, err := r.Index.Load()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("EmptyIndexRejectedSoftly", func(t *testing.T) {
		r := setupTestRepo(t)

		_, err := r.Commit("empty")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNothingToCommit))

		head, err := r.Graph.Head()
		require.NoError(t, err)
		assert.Empty(t, head)
	})

	t.Run("SecondCommitLinksToFirst", func(t *testing.T) {
		r := setupTestRepo(t)

		writeFile(t, r, "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))
		first, err := r.Commit("first")
		require.NoError(t, err)

		writeFile(t, r, "a.txt", "hello\nworld\n")
		require.NoError(t, r.Add("a.txt"))
		second, err := r.Commit("second")
		require.NoError(t, err)

		c, err := r.Graph.Get(second)
		require.NoError(t, err)
		assert.Equal(t, first, c.Parent)
	})

	t.Run("HistoryLengthMatchesCommitCount", func(t *testing.T) {
		r := setupTestRepo(t)

		const n = 5
		for i := 0; i < n; i++ {
			writeFile(t, r, "f.txt", string(rune('a'+i))+"\n")
			require.NoError(t, r.Add("f.txt"))
			_, err := r.Commit("change")
			require.NoError(t, err)
		}

		var buf bytes.Buffer
		require.NoError(t, r.Log(&buf))
		assert.Equal(t, n, bytes.Count(buf.Bytes(), []byte("commit ")))
	})
}

func TestLog(t *testing.T) {
	r := setupTestRepo(t)

	writeFile(t, r, "a.txt", "one\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.Commit("first")
	require.NoError(t, err)

	writeFile(t, r, "a.txt", "two\n")
	require.NoError(t, r.Add("a.txt"))
	second, err := r.Commit("second")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Log(&buf))

	out := buf.String()
	assert.Contains(t, out, second)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	// Most recent first
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("second")), bytes.Index(buf.Bytes(), []byte("first")))
}

func TestShow(t *testing.T) {
	t.Run("RootCommitHasNoComparison", func(t *testing.T) {
		r := setupTestRepo(t)

		writeFile(t, r, "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))
		hash, err := r.Commit("first")
		require.NoError(t, err)

		c, diffs, err := r.Show(hash)
		require.NoError(t, err)
		assert.Empty(t, c.Parent)
		assert.Nil(t, diffs)
	})

	t.Run("EditedFileDiffsAgainstParent", func(t *testing.T) {
		r := setupTestRepo(t)

		writeFile(t, r, "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))
		_, err := r.Commit("first")
		require.NoError(t, err)

		writeFile(t, r, "a.txt", "hello\nworld\n")
		require.NoError(t, r.Add("a.txt"))
		second, err := r.Commit("second")
		require.NoError(t, err)

		_, diffs, err := r.Show(second)
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		assert.Equal(t, "a.txt", diffs[0].Path)
		assert.False(t, diffs[0].New)

		segments := diffs[0].Result.Segments
		require.Len(t, segments, 2)
		assert.Equal(t, diff.Segment{Kind: diff.Equal, Text: "hello\n"}, segments[0])
		assert.Equal(t, diff.Segment{Kind: diff.Added, Text: "world\n"}, segments[1])
	})

	t.Run("NewFileReportedWithoutDiff", func(t *testing.T) {
		r := setupTestRepo(t)

		writeFile(t, r, "a.txt", "hello\n")
		require.NoError(t, r.Add("a.txt"))
		_, err := r.Commit("first")
		require.NoError(t, err)

		writeFile(t, r, "b.txt", "fresh\n")
		require.NoError(t, r.Add("b.txt"))
		second, err := r.Commit("second")
		require.NoError(t, err)

		_, diffs, err := r.Show(second)
		require.NoError(t, err)
		require.Len(t, diffs, 1)
		assert.Equal(t, "b.txt", diffs[0].Path)
		assert.True(t, diffs[0].New)
		assert.Nil(t, diffs[0].Result)
	})

	t.Run("UnknownCommit", func(t *testing.T) {
		r := setupTestRepo(t)

		_, _, err := r.Show("0000000000000000000000000000000000000000")
		assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	})
}

func TestStatus(t *testing.T) {
	r := setupTestRepo(t)

	writeFile(t, r, "committed.txt", "v1\n")
	require.NoError(t, r.Add("committed.txt"))
	writeFile(t, r, "gone.txt", "bye\n")
	require.NoError(t, r.Add("gone.txt"))
	_, err := r.Commit("base")
	require.NoError(t, err)

	writeFile(t, r, "committed.txt", "v2\n")
	writeFile(t, r, "extra.txt", "new\n")
	require.NoError(t, os.Remove(filepath.Join(r.Root, "gone.txt")))

	changes, err := r.Status()
	require.NoError(t, err)

	byPath := make(map[string]string)
	for _, c := range changes {
		byPath[c.Path] = c.Type
	}
	assert.Equal(t, "modify", byPath["committed.txt"])
	assert.Equal(t, "untracked", byPath["extra.txt"])
	assert.Equal(t, "delete", byPath["gone.txt"])
}

func TestVerify(t *testing.T) {
	r := setupTestRepo(t)

	writeFile(t, r, "a.txt", "content\n")
	require.NoError(t, r.Add("a.txt"))
	_, err := r.Commit("first")
	require.NoError(t, err)

	corrupt, err := r.Verify()
	require.NoError(t, err)
	assert.Empty(t, corrupt)
}

func TestArchive(t *testing.T) {
	r := setupTestRepo(t)

	writeFile(t, r, "a.txt", "archive me\n")
	require.NoError(t, r.Add("a.txt"))
	hash, err := r.Commit("snapshot")
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "snap.tar.zst")
	require.NoError(t, r.Archive(hash, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
