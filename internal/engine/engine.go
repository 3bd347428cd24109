package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/ignore"
	"github.com/envcheck/envcheck/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBytes caps how much of a single file is read.
const DefaultMaxBytes int64 = 1 << 20

const maxThreads = 32

// ErrRootNotFound is returned when the scan root is missing or is not a
// directory.
var ErrRootNotFound = errors.New("scan root not found")

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	Root            string
	IncludeGlobs    string // comma-separated
	ExcludeGlobs    string // comma-separated
	ExcludeDirs     []string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool
	KnownTypesOnly  bool
	MinSeverity     types.Severity
	DryRun          bool
	// Progress is called once per processed file, from worker goroutines.
	Progress func()
}

func (c Config) withDefaults() Config {
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.Threads <= 0 {
		c.Threads = runtime.GOMAXPROCS(0)
	}
	c.Threads = max(1, min(c.Threads, maxThreads))
	return c
}

// Result contains findings and basic scan statistics.
type Result struct {
	ScanID       string
	Findings     []types.Finding
	FilesScanned int
	FilesSkipped int
	Duration     time.Duration
}

// Scan runs a scan and returns only findings (without stats).
func Scan(ctx context.Context, cfg Config, a *detectors.Analyzer) ([]types.Finding, error) {
	res, err := ScanWithStats(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	return res.Findings, nil
}

// ScanWithStats walks cfg.Root, analyzes every eligible file and returns the
// deduplicated, sorted findings at or above cfg.MinSeverity. A nil analyzer
// means detectors.DefaultAnalyzer.
func ScanWithStats(ctx context.Context, cfg Config, a *detectors.Analyzer) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a == nil {
		a = detectors.DefaultAnalyzer()
	}
	cfg = cfg.withDefaults()
	result := Result{ScanID: uuid.NewString()}
	if err := checkRoot(cfg.Root); err != nil {
		return result, err
	}
	started := time.Now()

	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	var targets []target
	if err := Walk(ctx, cfg, ign, func(rel, abs string) {
		targets = append(targets, target{rel: rel, abs: abs})
	}); err != nil {
		return result, err
	}

	perFile := make([][]types.Finding, len(targets))
	var scanned, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Threads)
	for i, t := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fs, ok := scanFile(cfg, a, t)
			if ok {
				scanned.Add(1)
				perFile[i] = fs
			} else {
				skipped.Add(1)
			}
			if cfg.Progress != nil {
				cfg.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	var all []types.Finding
	for _, fs := range perFile {
		all = append(all, fs...)
	}
	result.Findings = filterBySeverity(detectors.Dedupe(all), cfg.MinSeverity)
	result.FilesScanned = int(scanned.Load())
	result.FilesSkipped = int(skipped.Load())
	result.Duration = time.Since(started)
	log.Debug().
		Str("scan_id", result.ScanID).
		Int("files", result.FilesScanned).
		Int("skipped", result.FilesSkipped).
		Int("findings", len(result.Findings)).
		Dur("took", result.Duration).
		Msg("scan complete")
	return result, nil
}

type target struct {
	rel string
	abs string
}

// scanFile reads and analyzes one file. ok is false when the file was skipped.
func scanFile(cfg Config, a *detectors.Analyzer, t target) ([]types.Finding, bool) {
	b, err := readCapped(t.abs, cfg.MaxBytes)
	if err != nil {
		log.Debug().Err(err).Str("path", t.rel).Msg("skipping file")
		return nil, false
	}
	if isBinary(b) || looksNonTextMIME(t.rel, b) {
		log.Debug().Str("path", t.rel).Msg("skipping binary file")
		return nil, false
	}
	// Inline ignore directive
	if bytes.Contains(b, []byte("envcheck:ignore-file")) {
		return nil, false
	}
	if cfg.DryRun {
		return nil, true
	}
	text := strings.ToValidUTF8(string(b), "")
	return a.Scan(t.rel, []byte(text)), true
}

func readCapped(p string, limit int64) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%s exceeds %d bytes", p, limit)
	}
	return b, nil
}

func checkRoot(root string) error {
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	return nil
}

func filterBySeverity(fs []types.Finding, floor types.Severity) []types.Finding {
	if floor <= types.SevInfo {
		return fs
	}
	out := fs[:0]
	for _, f := range fs {
		if f.Severity >= floor {
			out = append(out, f)
		}
	}
	return out
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob configuration. Include globs are comma-separated and, if provided, act as
// a positive filter. Exclude globs are subtracted last.
func allowedByGlobs(relPath string, cfg Config) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(cfg.IncludeGlobs)
	excludes := parseGlobsList(cfg.ExcludeGlobs)
	if len(includes) > 0 && !matchAnyGlob(rp, includes) {
		return false
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
