// internal/repo/status.go
package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"grit/internal/hasher"
	"grit/shared/types"
)

// Status compares the worktree against the snapshot of the most recent
// commit and reports modified, untracked, and deleted files.
func (r *Repository) Status() ([]shared.Change, error) {
	snapshot, err := r.headSnapshot()
	if err != nil {
		return nil, err
	}

	var changes []shared.Change
	seen := make(map[string]bool)

	err = filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if shouldIgnorePath(filepath.Base(path)) && path != r.Root {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(r.Root, path)
		if err != nil {
			return nil
		}
		if shouldIgnorePath(relPath) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", relPath, err)
		}

		hash := hasher.Sum(content)
		seen[relPath] = true

		committed, tracked := snapshot[relPath]
		switch {
		case !tracked:
			changes = append(changes, shared.Change{Path: relPath, Type: "untracked", Hash: hash})
		case committed != hash:
			changes = append(changes, shared.Change{Path: relPath, Type: "modify", Hash: hash})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking worktree: %w", err)
	}

	for path := range snapshot {
		if !seen[path] {
			changes = append(changes, shared.Change{Path: path, Type: "delete"})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	return changes, nil
}

// headSnapshot maps each path in the HEAD commit to its blob hash,
// first match winning on duplicate index entries.
func (r *Repository) headSnapshot() (map[string]string, error) {
	snapshot := make(map[string]string)

	head, err := r.Graph.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return snapshot, nil
	}

	c, err := r.Graph.Get(head)
	if err != nil {
		return nil, err
	}

	for _, entry := range c.Files {
		if _, ok := snapshot[entry.Path]; !ok {
			snapshot[entry.Path] = entry.Hash
		}
	}

	return snapshot, nil
}

// shouldIgnorePath checks if a path should be ignored
func shouldIgnorePath(path string) bool {
	if path == "" {
		return true
	}

	components := strings.Split(path, string(filepath.Separator))
	for _, comp := range components {
		if comp == "" {
			continue
		}

		// Ignore hidden files and directories
		if strings.HasPrefix(comp, ".") {
			return true
		}

		switch comp {
		case "node_modules", "vendor", "dist", "build":
			return true
		}
	}

	return false
}
