// internal/index/index.go
package index

import (
	"encoding/json"
	"fmt"
	"os"

	"grit/shared/types"
	"grit/shared/utils"
)

// File is the durable staging index: an ordered JSON array of entries
// awaiting the next commit. Order is add order, and a path staged twice
// appears twice; commits carry the sequence verbatim.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Load reads the persisted sequence. A missing index file means nothing
// is staged.
func (f *File) Load() ([]shared.Entry, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []shared.Entry{}, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	if len(data) == 0 {
		return []shared.Entry{}, nil
	}

	var entries []shared.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	if entries == nil {
		entries = []shared.Entry{}
	}

	return entries, nil
}

// Append persists entry at the end of the sequence. Read-modify-write;
// a single writer per repository is assumed.
func (f *File) Append(entry shared.Entry) error {
	entries, err := f.Load()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	return f.write(entries)
}

// Clear resets the index to an empty sequence. Called only as part of a
// successful commit.
func (f *File) Clear() error {
	return f.write([]shared.Entry{})
}

func (f *File) write(entries []shared.Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	if err := utils.WriteFileAtomic(f.path, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	return nil
}
