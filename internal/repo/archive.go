// internal/repo/archive.go
package repo

import (
	"archive/tar"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Archive exports the snapshot of a commit as a zstd-compressed tar at
// outPath. Duplicate index entries collapse to their first occurrence,
// matching how the parent lookup in show resolves paths.
func (r *Repository) Archive(commitHash, outPath string) error {
	c, err := r.Graph.Get(commitHash)
	if err != nil {
		return err
	}

	modTime, err := time.Parse(time.RFC3339, c.Timestamp)
	if err != nil {
		modTime = time.Now()
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating archive file: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(r.Config.Archive.Level)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}

	tw := tar.NewWriter(enc)

	seen := make(map[string]bool)
	for _, entry := range c.Files {
		if seen[entry.Path] {
			continue
		}
		seen[entry.Path] = true

		content, err := r.Objects.Get(entry.Hash)
		if err != nil {
			return fmt.Errorf("loading blob for %s: %w", entry.Path, err)
		}

		hdr := &tar.Header{
			Name:    entry.Path,
			Mode:    0644,
			Size:    int64(len(content)),
			ModTime: modTime,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing header for %s: %w", entry.Path, err)
		}
		if _, err := tw.Write(content); err != nil {
			return fmt.Errorf("writing %s: %w", entry.Path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing compression: %w", err)
	}

	return nil
}
