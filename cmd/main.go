package main

import (
	"DirectiveFinder/internal"
	"DirectiveFinder/internal/directive"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "DirectiveFinder",
		Usage:     "Report the leading \"use client\" / \"use server\" directive of source files",
		ArgsUsage: "[roots...] (use - to classify stdin)",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "ext",
				Usage:   "Extensions to scan (comma separated, e.g. ts,tsx). Defaults to JS/TS sources.",
				EnvVars: []string{"DIRFINDER_EXT"},
			},
			&cli.StringSliceFlag{
				Name:    "exclude-ext",
				Usage:   "Extensions to skip even if listed in --ext",
				EnvVars: []string{"DIRFINDER_EXCLUDE_EXT"},
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "Path patterns to skip: plain substring, 'plain:i:' for case-insensitive, or 're:<regex>'",
				Value:   cli.NewStringSlice("node_modules", ".git"),
				EnvVars: []string{"DIRFINDER_EXCLUDE"},
			},
			&cli.StringFlag{
				Name:    "exclude-file",
				Usage:   "File with one exclude pattern per line",
				EnvVars: []string{"DIRFINDER_EXCLUDE_FILE"},
			},
			&cli.IntFlag{
				Name:    "depth",
				Usage:   "Search depth (0 - unlimited)",
				EnvVars: []string{"DIRFINDER_DEPTH"},
			},
			&cli.IntFlag{
				Name:    "threads",
				Usage:   "Number of workers (0 - auto)",
				EnvVars: []string{"DIRFINDER_THREADS"},
			},
			&cli.BoolFlag{
				Name:    "archives",
				Usage:   "Look inside archives (zip, tar, gz, bz2, xz, rar, 7z, ...)",
				EnvVars: []string{"DIRFINDER_ARCHIVES"},
			},
			&cli.BoolFlag{
				Name:    "sniff",
				Usage:   "Skip files whose content is not detected as text",
				EnvVars: []string{"DIRFINDER_SNIFF"},
			},
			&cli.IntFlag{
				Name:    "chunk-size",
				Usage:   "Bytes read per chunk",
				Value:   directive.DefaultChunkSize,
				EnvVars: []string{"DIRFINDER_CHUNK_SIZE"},
			},
			&cli.IntFlag{
				Name:    "cache-size",
				Usage:   "Results kept in the in-memory cache (0 - disabled)",
				Value:   4096,
				EnvVars: []string{"DIRFINDER_CACHE_SIZE"},
			},
			&cli.StringSliceFlag{
				Name:    "only",
				Usage:   "Kinds to report: client, server, default",
				EnvVars: []string{"DIRFINDER_ONLY"},
			},
			&cli.StringFlag{
				Name:    "format",
				Usage:   "Report format: text or json",
				Value:   internal.FormatText,
				EnvVars: []string{"DIRFINDER_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "report",
				Usage:   "Write the report to this file instead of stdout",
				EnvVars: []string{"DIRFINDER_REPORT"},
			},
			&cli.BoolFlag{
				Name:    "fail-fast",
				Usage:   "Stop on the first walk error",
				EnvVars: []string{"DIRFINDER_FAIL_FAST"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for the scan (e.g. 30s, 10m)",
				EnvVars: []string{"DIRFINDER_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "logfile",
				Usage:   "Path to the log file",
				EnvVars: []string{"DIRFINDER_LOGFILE", "LOGFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DIRFINDER_LOG_LEVEL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if err := internal.InitLogger(c.String("logfile"), c.String("log-level")); err != nil {
		return err
	}

	// Setup context with cancel and signal handling
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout := c.Duration("timeout"); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	roots := c.Args().Slice()
	stdin, err := stdinRequested(roots)
	if err != nil {
		return err
	}
	if stdin {
		kind, err := directive.NewScanner(c.Int("chunk-size")).Classify(sigCtx, io.NopCloser(os.Stdin))
		if err != nil {
			return fmt.Errorf("stdin: %w", err)
		}
		fmt.Println(kind)
		return nil
	}
	if len(roots) == 0 {
		roots = []string{"."}
	}

	opts := internal.ScanOptions{
		Roots:        roots,
		Threads:      c.Int("threads"),
		Extensions:   c.StringSlice("ext"),
		ExcludeExt:   c.StringSlice("exclude-ext"),
		Exclude:      c.StringSlice("exclude"),
		ExcludeFile:  c.String("exclude-file"),
		Depth:        c.Int("depth"),
		Archives:     c.Bool("archives"),
		Sniff:        c.Bool("sniff"),
		FailFast:     c.Bool("fail-fast"),
		ChunkSize:    c.Int("chunk-size"),
		Only:         c.StringSlice("only"),
		ReportFormat: c.String("format"),
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := opts.Prepare(); err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path := c.String("report"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("report: %w", err)
		}
		defer f.Close()
		out = f
	}

	finder, err := internal.NewFileScanner(c.Int("cache-size"))
	if err != nil {
		return err
	}

	var stats internal.AppStats
	logrus.WithField("roots", roots).Info("DirectiveFinder started")
	if err := finder.Scan(sigCtx, opts, internal.NewResultSink(opts, &stats, out)); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	stats.FilesFound.Store(finder.Found())

	logrus.WithFields(logrus.Fields{
		"found":     stats.FilesFound.Load(),
		"processed": stats.FilesProcessed.Load(),
		"client":    stats.Client.Load(),
		"server":    stats.Server.Load(),
		"default":   stats.Default.Load(),
		"skipped":   stats.Skipped.Load(),
		"errors":    stats.Errors.Load(),
	}).Infof("DirectiveFinder finished in %s", stats.Elapsed().Round(time.Millisecond))
	return nil
}

// stdinRequested reports whether roots asks for stdin. "-" cannot be mixed
// with directory roots.
func stdinRequested(roots []string) (bool, error) {
	for _, r := range roots {
		if r != "-" {
			continue
		}
		if len(roots) > 1 {
			return false, fmt.Errorf("\"-\" reads stdin and cannot be combined with other roots %v", roots)
		}
		return true, nil
	}
	return false, nil
}
