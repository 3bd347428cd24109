package engine

import (
	"context"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/envcheck/envcheck/internal/ignore"
	"github.com/rs/zerolog/log"
)

// Walk traverses cfg.Root and invokes handle for each eligible file with its
// slash-separated relative path and its absolute path. Content checks happen
// later, at read time.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(rel, abs string)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	excludeDirs := make(map[string]bool, len(cfg.ExcludeDirs))
	for _, d := range cfg.ExcludeDirs {
		excludeDirs[strings.Trim(filepath.ToSlash(d), "/")] = true
	}
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("walk: skipping unreadable entry")
			if d != nil && d.IsDir() && p != cfg.Root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p == cfg.Root {
				return nil
			}
			name := d.Name()
			if cfg.DefaultExcludes && isDefaultDirExcluded(name) {
				return filepath.SkipDir
			}
			if excludeDirs[name] || excludeDirs[rel] {
				return filepath.SkipDir
			}
			if ign.Match(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !allowedByGlobs(rel, cfg) {
			return nil
		}
		if ign.Match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Debug().Err(err).Str("path", rel).Msg("walk: stat failed")
			return nil
		}
		if cfg.MaxBytes > 0 && info.Size() > cfg.MaxBytes {
			return nil
		}
		// Cheap extension-based skips
		lower := strings.ToLower(rel)
		if cfg.DefaultExcludes && isDefaultFileExcluded(lower) {
			return nil
		}
		if cfg.KnownTypesOnly && !isKnownType(lower) {
			return nil
		}
		if looksNonTextMIME(rel, nil) {
			return nil
		}
		handle(rel, p)
		return nil
	})
}

// looksNonTextMIME uses the file extension and a tiny content sniff to skip
// clearly non-text content (e.g., images) in addition to NUL-byte detection.
func looksNonTextMIME(path string, b []byte) bool {
	// .ts maps to video/mp2t in some system MIME tables
	if isKnownType(strings.ToLower(path)) {
		return false
	}
	// fast-path by extension
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "audio/") {
			return true
		}
		if strings.Contains(ct, "zip") || strings.Contains(ct, "tar") || strings.Contains(ct, "gzip") {
			return true
		}
	}
	// PNG signature
	if len(b) >= 8 && string(b[:8]) == "\x89PNG\r\n\x1a\n" {
		return true
	}
	// ZIP (PK) header
	if len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4 {
		return true
	}
	return false
}

// CountTargets reports how many files a scan with cfg would read, without
// reading them.
func CountTargets(cfg Config) (int, error) {
	cfg = cfg.withDefaults()
	if err := checkRoot(cfg.Root); err != nil {
		return 0, err
	}
	ign, _ := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	n := 0
	err := Walk(context.Background(), cfg, ign, func(string, string) { n++ })
	return n, err
}
