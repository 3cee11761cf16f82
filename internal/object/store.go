// internal/object/store.go
package object

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"

	"grit/internal/errors"
	"grit/internal/hasher"
	"grit/internal/storage"
)

const defaultCacheSize = 1000

func NewFileStore(root string, db *badger.DB) (*FileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating object store directory: %w", err)
	}

	cache, err := lru.New[string, []byte](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return &FileStore{
		root:  root,
		meta:  storage.NewBadgerStore(db, "blob"),
		cache: cache,
	}, nil
}

// Put stores content under its hash and returns the hash. Writing the
// same content twice is a no-op after the first; only the reference
// count moves.
func (s *FileStore) Put(content []byte) (string, error) {
	// Allow empty content (empty files are valid)
	if content == nil {
		content = []byte{}
	}

	hash := hasher.Sum(content)
	path := s.objectPath(hash)

	if _, err := os.Stat(path); err == nil {
		if err := s.incrementRefCount(hash, int64(len(content))); err != nil {
			return "", fmt.Errorf("incrementing ref count: %w", err)
		}
		return hash, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking object file: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("writing object file: %w", err)
	}

	meta := &BlobMeta{
		Hash:      hash,
		Size:      int64(len(content)),
		RefCount:  1,
		CreatedAt: time.Now(),
	}
	if err := s.meta.Create(meta); err != nil {
		// Cleanup on failure
		os.Remove(path)
		return "", fmt.Errorf("storing metadata: %w", err)
	}

	s.cache.Add(hash, content)

	return hash, nil
}

// Get retrieves content by hash
func (s *FileStore) Get(hash string) ([]byte, error) {
	if !hasher.Valid(hash) {
		return nil, errors.NotFound("invalid object hash: %q", hash)
	}

	// Check cache first
	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	content, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("object not found: %s", hash)
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}

	s.cache.Add(hash, content)

	return content, nil
}

// Exists checks if an object exists
func (s *FileStore) Exists(hash string) bool {
	if hash == "" {
		return false
	}

	if s.cache.Contains(hash) {
		return true
	}

	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// Verify re-hashes the stored bytes and checks they still match hash.
func (s *FileStore) Verify(hash string) error {
	content, err := s.Get(hash)
	if err != nil {
		return err
	}

	if hasher.Sum(content) != hash {
		return fmt.Errorf("object %s: content hash mismatch", hash)
	}

	return nil
}

// Meta returns the bookkeeping record for a stored object.
func (s *FileStore) Meta(hash string) (*BlobMeta, error) {
	var meta BlobMeta
	if err := s.meta.Get(hash, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ListMeta returns bookkeeping records for every stored object.
func (s *FileStore) ListMeta() ([]BlobMeta, error) {
	var metas []BlobMeta
	if err := s.meta.List(&metas); err != nil {
		return nil, fmt.Errorf("listing object metadata: %w", err)
	}
	return metas, nil
}

// Hashes lists every object hash present on disk.
func (s *FileStore) Hashes() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading object directory: %w", err)
	}

	var hashes []string
	for _, entry := range entries {
		if entry.IsDir() || !hasher.Valid(entry.Name()) {
			continue
		}
		hashes = append(hashes, entry.Name())
	}
	return hashes, nil
}

func (s *FileStore) objectPath(hash string) string {
	return filepath.Join(s.root, hash)
}

func (s *FileStore) incrementRefCount(hash string, size int64) error {
	var meta BlobMeta
	err := s.meta.Get(hash, &meta)
	if err != nil {
		// Object file can predate its metadata if a crash hit between
		// the two writes; recreate the record instead of failing.
		meta = BlobMeta{
			Hash:      hash,
			Size:      size,
			RefCount:  1,
			CreatedAt: time.Now(),
		}
		return s.meta.Create(&meta)
	}

	meta.RefCount++
	return s.meta.Update(&meta)
}

var _ Store = (*FileStore)(nil)
