// Package envfile loads dotenv-style files and compares them.
package envfile

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// NamePattern matches the base names treated as env files.
const NamePattern = "{.env,.env.*,*.env}"

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
}

// Parse decodes dotenv content. Blank lines and comments are skipped and one
// layer of matching quotes is removed from values.
func Parse(data []byte) (map[string]string, error) {
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return env, nil
}

// Read loads one env file.
func Read(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return env, nil
}

// IsEnvFile reports whether a base name looks like an env file.
func IsEnvFile(name string) bool {
	ok, _ := doublestar.Match(NamePattern, name)
	return ok
}

// Find returns the env files below root as sorted slash-separated relative
// paths. Vendored and VCS directories are not descended into.
func Find(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", p).Msg("envfile: skipping entry")
			return nil
		}
		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsEnvFile(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// ValueDiff is a key present in both files with different values. The values
// are kept for callers but never serialized.
type ValueDiff struct {
	Key    string `json:"key"`
	First  string `json:"-"`
	Second string `json:"-"`
}

// Drift is the key-level difference between two env mappings.
type Drift struct {
	MissingInFirst  []string    `json:"missing_in_first"`
	MissingInSecond []string    `json:"missing_in_second"`
	Different       []ValueDiff `json:"different_values"`
}

// Empty reports whether the two mappings were identical.
func (d Drift) Empty() bool {
	return len(d.MissingInFirst) == 0 && len(d.MissingInSecond) == 0 && len(d.Different) == 0
}

// Diff compares a against b. All lists are sorted by key.
func Diff(a, b map[string]string) Drift {
	d := Drift{MissingInFirst: []string{}, MissingInSecond: []string{}, Different: []ValueDiff{}}
	for _, k := range sortedKeys(b) {
		if _, ok := a[k]; !ok {
			d.MissingInFirst = append(d.MissingInFirst, k)
		}
	}
	for _, k := range sortedKeys(a) {
		bv, ok := b[k]
		switch {
		case !ok:
			d.MissingInSecond = append(d.MissingInSecond, k)
		case bv != a[k]:
			d.Different = append(d.Different, ValueDiff{Key: k, First: a[k], Second: bv})
		}
	}
	return d
}

// DiffFiles reads and compares two env files.
func DiffFiles(first, second string) (Drift, error) {
	a, err := Read(first)
	if err != nil {
		return Drift{}, err
	}
	b, err := Read(second)
	if err != nil {
		return Drift{}, err
	}
	return Diff(a, b), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
