package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mholt/archives"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"

	"DirectiveFinder/internal/directive"
)

var ErrWalkFailFast = errors.New("fail-fast: walk error") // sentinel error

// FileScanner classifies the leading directive of every file under a set of roots.
type FileScanner struct {
	cache *ResultCache
	found atomic.Int64
}

// NewFileScanner keeps up to cacheSize results between scans; 0 disables the cache.
func NewFileScanner(cacheSize int) (*FileScanner, error) {
	cache, err := NewResultCache(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &FileScanner{cache: cache}, nil
}

// Found reports how many files and archive entries the latest Scan queued.
func (fs *FileScanner) Found() int64 {
	return fs.found.Load()
}

// ClassifyResult is reported to a callback once per file or walk error.
type ClassifyResult struct {
	FilePath  string
	InnerPath string
	Kind      directive.Kind
	Skipped   bool
	Cached    bool
	Error     error
}

// DisplayPath joins archive and entry paths with "!".
func (r ClassifyResult) DisplayPath() string {
	if r.InnerPath == "" {
		return r.FilePath
	}
	return r.FilePath + "!" + r.InnerPath
}

// NewResultSink returns a closure updating stats, logging, and writing report
// lines to w for the kinds opts selects. opts must already be prepared.
func NewResultSink(opts ScanOptions, stats *AppStats, w io.Writer) func(ClassifyResult) {
	stats.Start()
	var mu sync.Mutex

	return func(res ClassifyResult) {
		fields := logrus.Fields{"file": res.FilePath}
		if res.InnerPath != "" {
			fields["inner"] = res.InnerPath
		}
		if res.Error != nil {
			stats.Errors.Add(1)
			logrus.WithFields(fields).WithError(res.Error).Error("process error")
			return
		}
		stats.FilesProcessed.Add(1)
		if res.Skipped {
			stats.Skipped.Add(1)
			logrus.WithFields(fields).Debug("Skipped non-text file")
			return
		}
		stats.count(res.Kind)
		if res.Kind != directive.Default {
			fields["kind"] = res.Kind
			logrus.WithFields(fields).Debug("Directive found")
		}
		if w == nil || !opts.reports(res.Kind) {
			return
		}
		line, err := formatResult(opts.ReportFormat, res)
		if err != nil {
			logrus.WithFields(fields).WithError(err).Error("format result")
			return
		}
		mu.Lock()
		_, _ = io.WriteString(w, line)
		mu.Unlock()
	}
}

type jsonResult struct {
	Path   string `json:"path"`
	Inner  string `json:"inner,omitempty"`
	Kind   string `json:"kind"`
	Cached bool   `json:"cached,omitempty"`
}

func formatResult(format string, res ClassifyResult) (string, error) {
	if format == FormatJSON {
		b, err := json.Marshal(jsonResult{
			Path:   res.FilePath,
			Inner:  res.InnerPath,
			Kind:   res.Kind.String(),
			Cached: res.Cached,
		})
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	}
	return res.Kind.String() + "\t" + res.DisplayPath() + "\n", nil
}

// Scan is the main pipeline. onResult may be called from several goroutines.
func (fs *FileScanner) Scan(parent context.Context, opts ScanOptions, onResult func(ClassifyResult)) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := opts.Prepare(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sc := directive.NewScanner(opts.ChunkSize)

	found := &fs.found
	found.Store(0)
	var (
		processed atomic.Int64
		errorsC   atomic.Int64
		hits      atomic.Int64
	)

	fileCh := make(chan Task, 2048)
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(opts.Threads, func(i interface{}) {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		t := i.(Task)
		processed.Add(1)
		res := fs.classifyTask(ctx, t, sc, opts.Sniff)
		switch {
		case res.Error != nil:
			errorsC.Add(1)
		case res.Kind != directive.Default:
			hits.Add(1)
		}
		onResult(res)
	})
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	// walker owns fileCh and reports exactly one result on walkErr
	walkErr := make(chan error, 1)
	go func() {
		defer close(fileCh)
		err := fs.walk(ctx, &opts, fileCh, found, func(res ClassifyResult) {
			errorsC.Add(1)
			onResult(res)
		})
		if errors.Is(err, ErrWalkFailFast) {
			cancel()
		}
		walkErr <- err
	}()

	// periodic stats
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case t, ok := <-fileCh:
			if !ok {
				break loop
			}
			wg.Add(1)
			if err := pool.Invoke(t); err != nil {
				wg.Done()
				logrus.WithError(err).Error("submit task")
			}
		case <-ticker.C:
			logrus.Infof("Stats: found=%d processed=%d directives=%d errors=%d",
				found.Load(), processed.Load(), hits.Load(), errorsC.Load())
		case <-ctx.Done():
			break loop
		}
	}

	wg.Wait()
	werr := <-walkErr
	if errors.Is(werr, ErrWalkFailFast) {
		return ErrWalkFailFast
	}
	if err := parent.Err(); err != nil {
		return err
	}
	return werr
}

func (fs *FileScanner) walk(ctx context.Context, opts *ScanOptions, fileCh chan<- Task, found *atomic.Int64, onErr func(ClassifyResult)) error {
	send := func(t Task) {
		select {
		case fileCh <- t:
		case <-ctx.Done():
		}
	}
	for _, root := range opts.Roots {
		err := WalkWithDepth(ctx, root, opts.Depth, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				onErr(ClassifyResult{FilePath: path, Error: err})
				if opts.FailFast {
					return ErrWalkFailFast
				}
				return nil
			}
			if d.IsDir() {
				if path != root && opts.excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if opts.excluded(path) {
				return nil
			}
			if opts.Archives && IsArchive(path) {
				WalkArchive(ctx, path, send, found, opts)
				return nil
			}
			if !opts.allowedExt(strings.ToLower(filepath.Ext(d.Name()))) {
				return nil
			}
			found.Add(1)
			select {
			case fileCh <- Task{path: path}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (fs *FileScanner) classifyTask(ctx context.Context, t Task, sc *directive.Scanner, sniff bool) ClassifyResult {
	if t.isArchive {
		return fs.classifyArchiveEntry(ctx, t.path, t.innerPath, sc, sniff)
	}
	return fs.classifyFile(ctx, t.path, sc, sniff)
}

func (fs *FileScanner) classifyFile(ctx context.Context, path string, sc *directive.Scanner, sniff bool) ClassifyResult {
	res := ClassifyResult{FilePath: path}
	f, err := os.Open(path)
	if err != nil {
		res.Error = err
		return res
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		res.Error = err
		return res
	}
	key := keyFor(absPath(path), "", info)
	if kind, ok := fs.cache.get(key); ok {
		_ = f.Close()
		res.Kind, res.Cached = kind, true
		return res
	}

	res.Kind, res.Skipped, res.Error = classifyReader(ctx, f, sc, sniff)
	if res.Error == nil && !res.Skipped {
		fs.cache.add(key, res.Kind)
	}
	return res
}

func (fs *FileScanner) classifyArchiveEntry(ctx context.Context, archivePath, innerPath string, sc *directive.Scanner, sniff bool) ClassifyResult {
	res := ClassifyResult{FilePath: archivePath, InnerPath: innerPath}
	info, err := os.Stat(archivePath)
	if err != nil {
		res.Error = err
		return res
	}
	key := keyFor(absPath(archivePath), innerPath, info)
	if kind, ok := fs.cache.get(key); ok {
		res.Kind, res.Cached = kind, true
		return res
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		res.Error = err
		return res
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}
	f, err := fsys.Open(innerPath)
	if err != nil {
		res.Error = err
		return res
	}

	res.Kind, res.Skipped, res.Error = classifyReader(ctx, f, sc, sniff)
	if res.Error == nil && !res.Skipped {
		fs.cache.add(key, res.Kind)
	}
	return res
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
