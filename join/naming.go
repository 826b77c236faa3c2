package join

import (
	"fmt"
	"path/filepath"
	"time"

	farm "github.com/dgryski/go-farm"
)

// UniqueTempDir derives a unique temp subdirectory name under root for
// this run, the same "derive a numeric seed from a path" idea as
// sorter.NewSorter's sha256.Sum224(outPath) ShardIndex default, but using
// the pack's fast non-cryptographic hash: nothing here needs
// collision-resistance against an adversary, only a low chance of
// colliding with a concurrent run. The seed folds in the wall-clock time
// alongside the accession so two runs against the same accession still
// land in different directories.
func UniqueTempDir(root, accession string, now time.Time) string {
	seed := fmt.Sprintf("%s|%d", accession, now.UnixNano())
	h := farm.Hash64([]byte(seed))
	return filepath.Join(root, fmt.Sprintf("seqdump-%016x", h))
}

// BucketName returns the numbered per-worker output bucket name for
// bucket index b within subdirectory dir (spec.md C12: "numbered
// per-worker output parts"). bucket == singletonBucket names the Split3
// singleton bucket instead of a numbered one.
func BucketName(dir string, bucket int, shard int) string {
	if bucket == singletonBucket {
		return filepath.Join(dir, fmt.Sprintf("part-singleton.%04d", shard))
	}
	return filepath.Join(dir, fmt.Sprintf("part-%03d.%04d", bucket, shard))
}
