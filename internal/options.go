package internal

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"DirectiveFinder/internal/directive"
)

// DefaultExtensions are scanned when no --ext list is given.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ScanOptions - public options from CLI.
type ScanOptions struct {
	Roots        []string
	Threads      int
	Extensions   []string
	ExcludeExt   []string
	Exclude      []string
	ExcludeFile  string
	Depth        int
	Archives     bool
	Sniff        bool
	FailFast     bool
	ChunkSize    int
	Only         []string
	ReportFormat string

	extMap   map[string]struct{}
	exclExt  map[string]struct{}
	excludes []PathPattern
	only     map[directive.Kind]struct{}
}

// Validate checks invariants.
func (o *ScanOptions) Validate() error {
	if len(o.Roots) == 0 {
		return errors.New("at least one root is required")
	}
	if o.Depth < 0 {
		return errors.New("depth must not be negative")
	}
	if o.ChunkSize < 0 {
		return errors.New("chunk-size must not be negative")
	}
	switch o.ReportFormat {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown report format %q", o.ReportFormat)
	}
	for _, k := range o.Only {
		if _, err := directive.ParseKind(k); err != nil {
			return err
		}
	}
	return nil
}

// Prepare builds fast lookup structures and sensible defaults.
func (o *ScanOptions) Prepare() error {
	exts := o.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	o.extMap = toExtSet(exts)
	o.exclExt = toExtSet(o.ExcludeExt)
	if o.Threads <= 0 {
		o.Threads = max(32, runtime.GOMAXPROCS(0)*4)
	}
	if o.ReportFormat == "" {
		o.ReportFormat = FormatText
	}

	ps, err := ParsePatterns(o.Exclude)
	if err != nil {
		return err
	}
	if o.ExcludeFile != "" {
		more, err := LoadPatterns(o.ExcludeFile)
		if err != nil {
			return fmt.Errorf("exclude-file: %w", err)
		}
		ps = append(ps, more...)
	}
	o.excludes = ps

	only := o.Only
	if len(only) == 0 {
		only = []string{directive.Client.String(), directive.Server.String()}
	}
	o.only = make(map[directive.Kind]struct{}, len(only))
	for _, s := range only {
		k, err := directive.ParseKind(s)
		if err != nil {
			return err
		}
		o.only[k] = struct{}{}
	}
	return nil
}

// toExtSet normalises "ts", ".TS" and ".ts" to ".ts".
func toExtSet(s []string) map[string]struct{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		x = strings.ToLower(strings.TrimSpace(x))
		if x == "" {
			continue
		}
		if !strings.HasPrefix(x, ".") {
			x = "." + x
		}
		m[x] = struct{}{}
	}
	return m
}

func (o *ScanOptions) allowedExt(ext string) bool {
	if _, blocked := o.exclExt[ext]; blocked {
		return false
	}
	_, ok := o.extMap[ext]
	return ok
}

func (o *ScanOptions) excluded(path string) bool {
	return matchAny(o.excludes, path)
}

func (o *ScanOptions) reports(k directive.Kind) bool {
	_, ok := o.only[k]
	return ok
}
