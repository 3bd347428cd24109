package engine

import (
	"path"
	"strings"
)

var defaultExcludeDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"target":        true,
	"vendor":        true,
	"dist":          true,
	"build":         true,
	"out":           true,
	".venv":         true,
	"venv":          true,
	"__pycache__":   true,
	".pytest_cache": true,
	".mypy_cache":   true,
	".idea":         true,
	".vscode":       true,
	"coverage":      true,
	"bin":           true,
	"obj":           true,
}

// suffixes treated as non-text/big or noisy artifacts when default excludes enabled
var defaultExcludeFileSuffixes = []string{
	".min.js", ".map",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico",
	".pdf", ".zip", ".gz", ".tar", ".tgz", ".7z",
	".jar", ".class", ".exe", ".dll", ".so", ".dylib",
	".wasm", ".pyc",
	// common generated code outputs
	".pb.go", ".gen.go",
}

// exact filenames commonly safe to exclude when default excludes enabled
var defaultExcludeFileNames = map[string]bool{
	// lockfiles (package managers)
	"yarn.lock":         true,
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"composer.lock":     true,
	"poetry.lock":       true,
	"go.sum":            true,
	// OS cruft
	".ds_store": true,
}

// source and config suffixes scanned when KnownTypesOnly is set
var knownTypeSuffixes = []string{
	".py", ".js", ".ts", ".go", ".java", ".rb",
	".json", ".yml", ".yaml", ".env", ".ini", ".cfg",
	".sh", ".bash", ".dockerfile",
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	// fast check for any *.lock
	if strings.HasSuffix(lowerRel, ".lock") {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	// generic generated artifacts pattern
	if strings.Contains(lowerRel, ".gen.") {
		return true
	}
	return defaultExcludeFileNames[path.Base(lowerRel)]
}

// isKnownType reports whether the slash-separated, lower-cased path names a
// source or config file worth scanning.
func isKnownType(lowerRel string) bool {
	base := path.Base(lowerRel)
	if base == "dockerfile" || strings.HasPrefix(base, ".env") {
		return true
	}
	for _, s := range knownTypeSuffixes {
		if strings.HasSuffix(base, s) {
			return true
		}
	}
	return false
}

// isBinary rejects content with a NUL byte or a gzip header in the first 2 KiB.
func isBinary(b []byte) bool {
	if len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b {
		return true
	}
	n := min(len(b), 2048)
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}
