package shared

// Entry maps a worktree path to the hash of its staged content. The
// staging index is an ordered sequence of entries; commits carry the
// sequence verbatim.
type Entry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Change represents a single worktree change relative to the last commit
type Change struct {
	Path string `json:"path"` // File path relative to repository root
	Type string `json:"type"` // modify, untracked, delete
	Hash string `json:"hash"` // Current content hash (empty for delete)
}
