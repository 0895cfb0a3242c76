package internal

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveFiles = 10000 // zip-bomb protection

var errArchiveLimit = errors.New("archive file limit reached")

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".tgz": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
}

// Task describes a unit of work
type Task struct {
	path      string
	innerPath string
	isArchive bool
}

// WalkWithDepth uses WalkDir and cuts branches by depth.
func WalkWithDepth(ctx context.Context, root string, maxDepth int, fn func(path string, d os.DirEntry, err error) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fn(path, d, err)
		}
		if maxDepth > 0 {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && depthCount(rel) > maxDepth {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		return fn(path, d, nil)
	})
}

// WalkArchive feeds archive entries as tasks.
func WalkArchive(ctx context.Context, path string, send func(Task), found *atomic.Int64, opts *ScanOptions) {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		logrus.WithError(err).WithField("archive", path).Error("open archive")
		return
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	count := 0
	err = iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if inner != "." && opts.excluded(inner) {
				return iofs.SkipDir
			}
			return nil
		}
		if count >= maxArchiveFiles {
			logrus.Warnf("Archive %s truncated: too many files (>= %d)", path, maxArchiveFiles)
			return errArchiveLimit
		}
		if !opts.allowedExt(strings.ToLower(filepath.Ext(inner))) || opts.excluded(inner) {
			return nil
		}
		found.Add(1)
		send(Task{path: path, innerPath: inner, isArchive: true})
		count++
		return nil
	})
	if err != nil && !errors.Is(err, errArchiveLimit) && ctx.Err() == nil {
		logrus.WithError(err).WithField("archive", path).Warn("walk archive")
	}
}

func depthCount(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

func IsArchive(path string) bool {
	_, ok := archiveExt[strings.ToLower(filepath.Ext(path))]
	return ok
}
