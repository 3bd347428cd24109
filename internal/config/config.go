package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/envcheck/envcheck/internal/baseline"
	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/types"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no config file exists at the searched locations.
var ErrNotFound = errors.New("no config file")

// FileConfig is the on-disk YAML configuration shape for envcheck. Nil
// fields were not set and defer to the next source.
type FileConfig struct {
	Include         *string  `yaml:"include"`
	Exclude         *string  `yaml:"exclude"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	MaxBytes        *int64   `yaml:"max_bytes"`
	Threads         *int     `yaml:"threads"`
	MinSeverity     *string  `yaml:"min_severity"`
	FailOn          *string  `yaml:"fail_on"`
	KnownTypesOnly  *bool    `yaml:"known_types_only"`
	DefaultExcludes *bool    `yaml:"default_excludes"`
	NoColor         *bool    `yaml:"no_color"`

	// Detection tuning
	Patterns []detectors.PatternSpec `yaml:"patterns"`
	Keywords []string                `yaml:"keywords"`

	// Drift tracking
	Drift                    *DriftConfig `yaml:"drift"`
	BaselineDir              *string      `yaml:"baseline_dir"`
	SnapshotDir              *string      `yaml:"snapshot_dir"`
	PersistBaselineIfMissing *bool        `yaml:"persist_baseline_if_missing"`

	Log *LogConfig `yaml:"log"`
}

// DriftConfig overrides baseline drift thresholds.
type DriftConfig struct {
	EntropyDelta *float64 `yaml:"entropy_delta"`
	LengthRatio  *float64 `yaml:"length_ratio"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .envcheck.yml/.yaml and envcheck.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".envcheck.yml", ".envcheck.yaml", "envcheck.yml", "envcheck.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, ErrNotFound
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, fmt.Errorf("%w: no config dir", ErrNotFound)
	}
	p := filepath.Join(base, "envcheck", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, ErrNotFound
}

// Load merges the global config under the repo-local one. Missing files are
// not an error; malformed ones are.
func Load(repoRoot string) (FileConfig, error) {
	global, err := LoadGlobal()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	local, err := LoadLocal(repoRoot)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return FileConfig{}, err
	}
	return global.Merge(local), nil
}

// Merge returns fc with every field set in over taking precedence. List
// fields from over replace, except exclude_dirs and patterns which append.
func (fc FileConfig) Merge(over FileConfig) FileConfig {
	out := fc
	setPtr(&out.Include, over.Include)
	setPtr(&out.Exclude, over.Exclude)
	setPtr(&out.MaxBytes, over.MaxBytes)
	setPtr(&out.Threads, over.Threads)
	setPtr(&out.MinSeverity, over.MinSeverity)
	setPtr(&out.FailOn, over.FailOn)
	setPtr(&out.KnownTypesOnly, over.KnownTypesOnly)
	setPtr(&out.DefaultExcludes, over.DefaultExcludes)
	setPtr(&out.NoColor, over.NoColor)
	setPtr(&out.BaselineDir, over.BaselineDir)
	setPtr(&out.SnapshotDir, over.SnapshotDir)
	setPtr(&out.PersistBaselineIfMissing, over.PersistBaselineIfMissing)
	out.ExcludeDirs = append(append([]string(nil), fc.ExcludeDirs...), over.ExcludeDirs...)
	out.Patterns = append(append([]detectors.PatternSpec(nil), fc.Patterns...), over.Patterns...)
	if len(over.Keywords) > 0 {
		out.Keywords = over.Keywords
	}
	if over.Drift != nil {
		d := DriftConfig{}
		if fc.Drift != nil {
			d = *fc.Drift
		}
		setPtr(&d.EntropyDelta, over.Drift.EntropyDelta)
		setPtr(&d.LengthRatio, over.Drift.LengthRatio)
		out.Drift = &d
	}
	if over.Log != nil {
		l := LogConfig{}
		if fc.Log != nil {
			l = *fc.Log
		}
		setPtr(&l.Level, over.Log.Level)
		setPtr(&l.Format, over.Log.Format)
		out.Log = &l
	}
	return out
}

func setPtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Analyzer builds a detectors.Analyzer: built-in signatures followed by the
// configured patterns, and the configured keywords when any are set.
func (fc FileConfig) Analyzer() *detectors.Analyzer {
	sigs := detectors.DefaultSignatures().With(detectors.CompilePatterns(fc.Patterns)...)
	kw := detectors.DefaultKeywords()
	if len(fc.Keywords) > 0 {
		kw = detectors.NewKeywords(fc.Keywords...)
	}
	return detectors.NewAnalyzer(sigs, kw, detectors.DefaultPolicy())
}

// Thresholds returns the drift thresholds with defaults filled in.
func (fc FileConfig) Thresholds() baseline.Thresholds {
	th := baseline.DefaultThresholds()
	if fc.Drift == nil {
		return th
	}
	if fc.Drift.EntropyDelta != nil && *fc.Drift.EntropyDelta > 0 {
		th.EntropyDelta = *fc.Drift.EntropyDelta
	}
	if fc.Drift.LengthRatio != nil && *fc.Drift.LengthRatio > 0 {
		th.LengthRatio = *fc.Drift.LengthRatio
	}
	return th
}

// Severity parses a configured severity, returning def when unset.
func Severity(v *string, def types.Severity) (types.Severity, error) {
	if v == nil || *v == "" {
		return def, nil
	}
	return types.ParseSeverity(*v)
}
