// internal/repo/repo.go
package repo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"grit/internal/commit"
	"grit/internal/config"
	"grit/internal/diff"
	griterrors "grit/internal/errors"
	"grit/internal/index"
	"grit/internal/logging"
	"grit/internal/object"
	"grit/shared/types"
)

const MarkerDir = ".grit"

// Repository is an explicit value owning the stores for one worktree.
// A single active writer per repository is assumed; concurrent
// processes against the same directory are unsupported.
type Repository struct {
	Root    string
	DB      *badger.DB
	Objects *object.FileStore
	Index   *index.File
	Graph   *commit.Graph
	Engine  *diff.Engine
	Config  *config.Config
	Logger  *zap.Logger
}

// Initialize creates the repository layout under root. Re-initializing
// an existing repository is benign and reported as such.
func Initialize(root string) error {
	gritDir := filepath.Join(root, MarkerDir)
	if _, err := os.Stat(gritDir); err == nil {
		return griterrors.AlreadyInitialized("repository already initialized in %s", root)
	}

	dirs := []string{
		filepath.Join(gritDir, "objects"),
		filepath.Join(gritDir, "db"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Empty HEAD means no commits yet
	if err := os.WriteFile(filepath.Join(gritDir, "HEAD"), []byte{}, 0644); err != nil {
		return fmt.Errorf("creating HEAD: %w", err)
	}
	if err := os.WriteFile(filepath.Join(gritDir, "index"), []byte("[]"), 0644); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	if err := config.Save(filepath.Join(gritDir, "config.json"), config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindRoot searches for the repository root by looking for the marker
// directory, walking up from startDir.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerDir)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("not a grit repository (run \"grit init\")")
}

// Open locates the repository containing path and wires its components.
func Open(path string) (*Repository, error) {
	root, err := FindRoot(path)
	if err != nil {
		return nil, err
	}

	gritDir := filepath.Join(root, MarkerDir)

	cfg, err := config.Load(filepath.Join(gritDir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(gritDir, "db"))
	opts.Logger = nil // Disable logging noise

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	objects, err := object.NewFileStore(filepath.Join(gritDir, "objects"), db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing object store: %w", err)
	}

	return &Repository{
		Root:    root,
		DB:      db,
		Objects: objects,
		Index:   index.New(filepath.Join(gritDir, "index")),
		Graph:   commit.NewGraph(objects, filepath.Join(gritDir, "HEAD")),
		Engine:  diff.NewEngine(),
		Config:  cfg,
		Logger:  logger.WithRepo(root),
	}, nil
}

// Close releases the repository's resources.
func (r *Repository) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}

	if err := r.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Add reads a worktree file, stores its content as a blob, and appends
// a {path, hash} entry to the staging index. The index keeps duplicates
// if the same path is added twice before a commit.
func (r *Repository) Add(path string) error {
	content, err := os.ReadFile(filepath.Join(r.Root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return griterrors.FileNotFound("no such file: %s", path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	hash, err := r.Objects.Put(content)
	if err != nil {
		return fmt.Errorf("storing blob for %s: %w", path, err)
	}

	if err := r.Index.Append(shared.Entry{Path: path, Hash: hash}); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}

	r.Logger.Debug("staged file",
		zap.String("path", path),
		zap.String("hash", hash))

	return nil
}

// Commit snapshots the staging index into a new commit, advances HEAD,
// and clears the index. The commit object is written before HEAD moves,
// so a crash can leave a stale index but never a dangling HEAD. An
// empty index is rejected softly with a NothingToCommit error.
func (r *Repository) Commit(message string) (string, error) {
	entries, err := r.Index.Load()
	if err != nil {
		return "", fmt.Errorf("loading index: %w", err)
	}
	if len(entries) == 0 {
		return "", griterrors.NothingToCommit("nothing to commit")
	}

	// Capture the parent before anything is written
	parent, err := r.Graph.Head()
	if err != nil {
		return "", err
	}

	c := r.Graph.Create(message, entries, parent)
	hash, err := r.Graph.Persist(c)
	if err != nil {
		return "", err
	}

	if err := r.Graph.SetHead(hash); err != nil {
		return "", err
	}

	if err := r.Index.Clear(); err != nil {
		return "", fmt.Errorf("clearing index: %w", err)
	}

	r.Logger.Info("created commit",
		zap.String("hash", hash),
		zap.Int("files", len(entries)))

	return hash, nil
}

// Log writes the history from HEAD to w, most recent first. On a broken
// parent link the commits already written stand and the error is
// surfaced.
func (r *Repository) Log(w io.Writer) error {
	return r.Graph.Walk(func(hash string, c *commit.Commit) error {
		fmt.Fprintf(w, "commit %s\nDate:   %s\n\n    %s\n\n", hash, c.Timestamp, c.Message)
		return nil
	})
}

// FileDiff is the comparison of one commit file against its parent
type FileDiff struct {
	Path   string
	New    bool // introduced in this commit, nothing to diff against
	Result *diff.Result
}

// Show loads the named commit and diffs each of its files against the
// parent commit. A commit without a parent returns no diffs; the caller
// reports that there is no prior version to compare.
func (r *Repository) Show(hash string) (*commit.Commit, []FileDiff, error) {
	c, err := r.Graph.Get(hash)
	if err != nil {
		return nil, nil, err
	}

	if c.Parent == "" {
		return c, nil, nil
	}

	parent, err := r.Graph.Get(c.Parent)
	if err != nil {
		if griterrors.IsType(err, griterrors.ErrorTypeNotFound) {
			return nil, nil, griterrors.CorruptHistory("parent %s of commit %s: %v", c.Parent, hash, err)
		}
		return nil, nil, err
	}

	var diffs []FileDiff
	for _, entry := range c.Files {
		old, found := findEntry(parent.Files, entry.Path)
		if !found {
			diffs = append(diffs, FileDiff{Path: entry.Path, New: true})
			continue
		}

		oldContent, err := r.Objects.Get(old.Hash)
		if err != nil {
			return nil, nil, fmt.Errorf("loading blob for %s: %w", entry.Path, err)
		}
		newContent, err := r.Objects.Get(entry.Hash)
		if err != nil {
			return nil, nil, fmt.Errorf("loading blob for %s: %w", entry.Path, err)
		}

		result, err := r.Engine.Diff(oldContent, newContent)
		if err != nil {
			return nil, nil, fmt.Errorf("diffing %s: %w", entry.Path, err)
		}

		diffs = append(diffs, FileDiff{Path: entry.Path, Result: result})
	}

	return c, diffs, nil
}

// findEntry returns the first entry matching path. First match wins on
// duplicate paths.
func findEntry(entries []shared.Entry, path string) (shared.Entry, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return shared.Entry{}, false
}

// Verify re-hashes every stored object and reports hashes whose content
// no longer matches their name.
func (r *Repository) Verify() ([]string, error) {
	hashes, err := r.Objects.Hashes()
	if err != nil {
		return nil, err
	}

	var corrupt []string
	for _, hash := range hashes {
		if err := r.Objects.Verify(hash); err != nil {
			r.Logger.Warn("object failed verification",
				zap.String("hash", hash),
				zap.Error(err))
			corrupt = append(corrupt, hash)
		}
	}

	return corrupt, nil
}
