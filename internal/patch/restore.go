package patch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Snapshot describes one on-disk snapshot found during discovery.
type Snapshot struct {
	Original     string
	SnapshotPath string
	Size         int64
	ModTime      time.Time
}

// restoreSkipDirs are directories never descended into during discovery.
var restoreSkipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
}

// FindSnapshots walks root and returns every snapshot matching the backup
// suffix convention, sorted by path. The disk is the sole source of truth:
// no index file exists, discovery is always a walk.
func FindSnapshots(root string) ([]Snapshot, error) {
	var snapshots []Snapshot

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if restoreSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, SnapshotSuffix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		snapshots = append(snapshots, Snapshot{
			Original:     strings.TrimSuffix(path, SnapshotSuffix),
			SnapshotPath: path,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SnapshotPath < snapshots[j].SnapshotPath
	})
	return snapshots, nil
}

// Restore copies each snapshot back over its original path. With cleanup
// the snapshot is deleted after a successful restore; a failed restore
// leaves both files untouched and is counted in failed.
func Restore(snapshots []Snapshot, cleanup bool, logger hclog.Logger) (restored, failed int) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	for _, s := range snapshots {
		if err := copyFile(s.SnapshotPath, s.Original); err != nil {
			logger.Warn("restore failed", "file", s.Original, "error", err)
			failed++
			continue
		}
		restored++

		if cleanup {
			if err := os.Remove(s.SnapshotPath); err != nil {
				logger.Debug("snapshot cleanup failed", "snapshot", s.SnapshotPath, "error", err)
			}
		}
	}
	return restored, failed
}
