package object

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"grit/internal/storage"
)

// Store is the content-addressed persistence contract. Keys are always
// the hash of the stored bytes; objects are write-once.
type Store interface {
	Put(content []byte) (string, error)
	Get(hash string) ([]byte, error)
	Exists(hash string) bool
}

// BlobMeta records bookkeeping for a stored object
type BlobMeta struct {
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	RefCount  uint32    `json:"ref_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *BlobMeta) GetID() string {
	return m.Hash
}

// FileStore keeps one file per object under root, with metadata in a
// badger-backed store and an LRU cache for hot content.
type FileStore struct {
	root  string
	meta  *storage.BadgerStore
	cache *lru.Cache[string, []byte]
}
