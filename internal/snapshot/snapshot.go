// Package snapshot keeps a timestamped history of environment mappings per
// name and compares the two most recent entries.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/pmezard/go-difflib/difflib"
)

const tsLayout = "20060102T150405.000000000Z"

// ErrNoHistory is returned by Compare when fewer than two snapshots exist.
var ErrNoHistory = errors.New("not enough snapshots to compare")

// Entry is one saved snapshot.
type Entry struct {
	Timestamp time.Time         `json:"ts"`
	Hash      string            `json:"hash"`
	Env       map[string]string `json:"env"`
	// Path is where the entry was read from or written to.
	Path string `json:"-"`
}

// Comparison describes how the newest snapshot differs from the one before.
type Comparison struct {
	Previous Entry    `json:"-"`
	Current  Entry    `json:"-"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Changed  []string `json:"changed"`
	Diff     string   `json:"diff"`
	Paths    []string `json:"paths"`
}

// Unchanged reports whether both snapshots carry the same content.
func (c Comparison) Unchanged() bool {
	return c.Previous.Hash == c.Current.Hash
}

// Store persists snapshots below a root directory, one subdirectory per name.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{root: dir, now: time.Now}
}

// Hash returns a stable content hash of env, independent of map order.
func Hash(env map[string]string) string {
	keys := sortedKeys(env)
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(strconv.Quote(k))
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(strconv.Quote(env[k]))
		_, _ = d.WriteString("\n")
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

func (s *Store) dirFor(name string) string {
	clean := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if clean == "" || clean == "." || clean == ".." {
		clean = "_" + clean
	}
	return filepath.Join(s.root, clean)
}

// Save writes a new snapshot of env under name.
func (s *Store) Save(name string, env map[string]string) (Entry, error) {
	dir := s.dirFor(name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return Entry{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	e := Entry{Timestamp: s.now().UTC(), Hash: Hash(env), Env: env}
	if e.Env == nil {
		e.Env = map[string]string{}
	}
	for {
		data, err := json.MarshalIndent(e, "", "  ")
		if err != nil {
			return Entry{}, fmt.Errorf("encode snapshot: %w", err)
		}
		p := filepath.Join(dir, e.Timestamp.Format(tsLayout)+".json")
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, os.ErrExist) {
			// same nanosecond as an earlier save; keep file names ordered
			e.Timestamp = e.Timestamp.Add(time.Nanosecond)
			continue
		}
		if err != nil {
			return Entry{}, fmt.Errorf("create snapshot: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return Entry{}, fmt.Errorf("write snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return Entry{}, fmt.Errorf("close snapshot: %w", err)
		}
		e.Path = p
		return e, nil
	}
}

// Latest returns up to n of the most recent snapshots for name, oldest first.
// n <= 0 returns all of them.
func (s *Store) Latest(name string, n int) ([]Entry, error) {
	dir := s.dirFor(name)
	ents, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var files []string
	for _, de := range ents {
		if de.Type().IsRegular() && strings.HasSuffix(de.Name(), ".json") {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)
	if n > 0 && len(files) > n {
		files = files[len(files)-n:]
	}
	out := make([]Entry, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f)
		e, err := readEntry(p)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func readEntry(p string) (Entry, error) {
	var e Entry
	data, err := os.ReadFile(p)
	if err != nil {
		return e, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("decode snapshot %s: %w", p, err)
	}
	if e.Env == nil {
		e.Env = map[string]string{}
	}
	e.Path = p
	return e, nil
}

// Compare diffs the two most recent snapshots for name.
func (s *Store) Compare(name string) (Comparison, error) {
	entries, err := s.Latest(name, 2)
	if err != nil {
		return Comparison{}, err
	}
	if len(entries) < 2 {
		return Comparison{}, fmt.Errorf("%s: %w", name, ErrNoHistory)
	}
	return Diff(entries[0], entries[1])
}

// Diff compares two entries. Key lists are sorted. The unified diff shows a
// fingerprint in place of each value, never the value itself.
func Diff(prev, cur Entry) (Comparison, error) {
	c := Comparison{
		Previous: prev,
		Current:  cur,
		Added:    []string{},
		Removed:  []string{},
		Changed:  []string{},
		Paths:    []string{prev.Path, cur.Path},
	}
	for _, k := range sortedKeys(cur.Env) {
		old, ok := prev.Env[k]
		switch {
		case !ok:
			c.Added = append(c.Added, k)
		case old != cur.Env[k]:
			c.Changed = append(c.Changed, k)
		}
	}
	for _, k := range sortedKeys(prev.Env) {
		if _, ok := cur.Env[k]; !ok {
			c.Removed = append(c.Removed, k)
		}
	}
	a, err := json.MarshalIndent(masked(prev.Env), "", "  ")
	if err != nil {
		return c, err
	}
	b, err := json.MarshalIndent(masked(cur.Env), "", "  ")
	if err != nil {
		return c, err
	}
	c.Diff, err = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "previous",
		ToFile:   "current",
		Context:  3,
	})
	if err != nil {
		return c, fmt.Errorf("diff snapshots: %w", err)
	}
	return c, nil
}

// masked replaces every value with a short content fingerprint, so equal
// values still diff as equal.
func masked(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = fmt.Sprintf("<redacted %08x>", uint32(xxhash.Sum64String(v)))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
