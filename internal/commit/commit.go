// internal/commit/commit.go
package commit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"grit/internal/errors"
	"grit/internal/object"
	"grit/shared/types"
	"grit/shared/utils"
)

// Commit is an immutable snapshot record. Its identity is the hash of
// this struct's JSON serialization, computed before the record is
// written anywhere; the hash itself is never part of the record.
type Commit struct {
	Timestamp string         `json:"timestamp"` // RFC3339
	Message   string         `json:"message"`
	Files     []shared.Entry `json:"files"`
	Parent    string         `json:"parent,omitempty"` // empty means no parent
}

// Graph builds, persists, and traverses the linear commit history.
// Commits live in the object store under their content hash, sharing a
// namespace with blobs; HEAD is a single-line file naming the most
// recent commit.
type Graph struct {
	objects  object.Store
	headPath string
}

func NewGraph(objects object.Store, headPath string) *Graph {
	return &Graph{
		objects:  objects,
		headPath: headPath,
	}
}

// Create assembles a commit record with the current timestamp. The
// parent is whatever HEAD held before this commit gets written.
func (g *Graph) Create(message string, files []shared.Entry, parent string) *Commit {
	return &Commit{
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   message,
		Files:     files,
		Parent:    parent,
	}
}

// Persist serializes the commit, writes it through the object store,
// and returns its hash. The caller advances HEAD afterwards, so a crash
// here leaves HEAD untouched rather than dangling.
func (g *Graph) Persist(c *Commit) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("serializing commit: %w", err)
	}

	hash, err := g.objects.Put(data)
	if err != nil {
		return "", fmt.Errorf("writing commit object: %w", err)
	}

	return hash, nil
}

// Get loads and validates a commit record by hash.
func (g *Graph) Get(hash string) (*Commit, error) {
	data, err := g.objects.Get(hash)
	if err != nil {
		return nil, err
	}

	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.CorruptHistory("commit %s: malformed record: %v", hash, err)
	}
	if c.Timestamp == "" {
		return nil, errors.CorruptHistory("commit %s: missing timestamp", hash)
	}

	return &c, nil
}

// Head returns the hash of the most recent commit, or "" when the
// repository has no commits yet.
func (g *Graph) Head() (string, error) {
	data, err := os.ReadFile(g.headPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading HEAD: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// SetHead points HEAD at hash. Only commit moves HEAD.
func (g *Graph) SetHead(hash string) error {
	if err := utils.WriteFileAtomic(g.headPath, []byte(hash+"\n"), 0644); err != nil {
		return fmt.Errorf("updating HEAD: %w", err)
	}
	return nil
}

// Walk traverses the history from HEAD, most recent first, calling fn
// for each commit until the root is reached or fn returns an error.
// Each call starts fresh from the current HEAD. A parent hash that no
// longer resolves aborts the walk with a CorruptHistory error; commits
// already delivered to fn stand.
func (g *Graph) Walk(fn func(hash string, c *Commit) error) error {
	head, err := g.Head()
	if err != nil {
		return err
	}

	for hash := head; hash != ""; {
		c, err := g.Get(hash)
		if err != nil {
			if errors.IsType(err, errors.ErrorTypeNotFound) {
				return errors.CorruptHistory("history broken at %s: %v", hash, err)
			}
			return err
		}

		if err := fn(hash, c); err != nil {
			return err
		}

		hash = c.Parent
	}

	return nil
}
