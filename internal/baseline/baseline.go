package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/rs/zerolog/log"
)

// DefaultName is the baseline name used when none is given.
const DefaultName = "default"

// Anomaly types.
const (
	AnomalyEntropy = "anomaly_entropy"
	AnomalyLength  = "anomaly_length"
)

// Notes attached to a Report.
const (
	NoteCreated    = "baseline created; no anomaly flags this run"
	NoteNoBaseline = "no baseline found and persist disabled"
)

var (
	// ErrNoBaseline is returned by Load when nothing has been persisted yet.
	ErrNoBaseline = errors.New("no baseline")
	// ErrCorrupt is returned by Load when the baseline file cannot be read or
	// decoded.
	ErrCorrupt = errors.New("corrupt baseline")
	// ErrInvalidName rejects baseline names that would escape the directory.
	ErrInvalidName = errors.New("invalid baseline name")
)

// FeatureSnapshot is the set of features recorded for one key.
type FeatureSnapshot struct {
	Key           string  `json:"key"`
	TokenType     string  `json:"token_type"`
	Entropy       float64 `json:"entropy"`
	Length        int     `json:"length"`
	DigitFraction float64 `json:"digits_fraction"`
}

// Baseline is the persisted form.
type Baseline struct {
	Name      string                     `json:"name"`
	CreatedAt time.Time                  `json:"created_at"`
	Features  map[string]FeatureSnapshot `json:"features"`
}

// Thresholds control when a shared key counts as drifted.
type Thresholds struct {
	// EntropyDelta is the absolute entropy change tolerated.
	EntropyDelta float64 `json:"entropy_delta" yaml:"entropy_delta"`
	// LengthRatio is the relative length change tolerated.
	LengthRatio float64 `json:"length_ratio" yaml:"length_ratio"`
}

// DefaultThresholds returns EntropyDelta 2.0 and LengthRatio 0.5.
func DefaultThresholds() Thresholds {
	return Thresholds{EntropyDelta: 2.0, LengthRatio: 0.5}
}

// Anomaly is one drift flag.
type Anomaly struct {
	Type    string `json:"type"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Report is the outcome of Analyze.
type Report struct {
	Anomalies []Anomaly `json:"anomalies"`
	Notes     []string  `json:"notes"`
	// Created is true when this run persisted a new baseline.
	Created bool `json:"baseline_created"`
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithThresholds overrides DefaultThresholds. Non-positive fields keep their
// defaults.
func WithThresholds(th Thresholds) Option {
	return func(t *Tracker) {
		if th.EntropyDelta > 0 {
			t.thresholds.EntropyDelta = th.EntropyDelta
		}
		if th.LengthRatio > 0 {
			t.thresholds.LengthRatio = th.LengthRatio
		}
	}
}

// WithPersistIfMissing controls whether Analyze writes a baseline when none
// exists. Defaults to true.
func WithPersistIfMissing(v bool) Option {
	return func(t *Tracker) { t.persistIfMissing = v }
}

// WithSignatures sets the signature set used to derive token types.
func WithSignatures(s detectors.SignatureSet) Option {
	return func(t *Tracker) { t.sigs = s }
}

// Tracker is bound to one baseline file.
type Tracker struct {
	dir              string
	name             string
	sigs             detectors.SignatureSet
	thresholds       Thresholds
	persistIfMissing bool
	now              func() time.Time
}

// NewTracker returns a tracker for baseline name inside dir. An empty name
// means DefaultName.
func NewTracker(dir, name string, opts ...Option) (*Tracker, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	t := &Tracker{
		dir:              dir,
		name:             name,
		sigs:             detectors.DefaultSignatures(),
		thresholds:       DefaultThresholds(),
		persistIfMissing: true,
		now:              time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Path returns the baseline file location.
func (t *Tracker) Path() string {
	return filepath.Join(t.dir, t.name+".json")
}

func (t *Tracker) lockPath() string {
	return t.Path() + ".lock"
}

// Thresholds returns the effective thresholds.
func (t *Tracker) Thresholds() Thresholds { return t.thresholds }

// Extract computes a feature snapshot for each pair.
func (t *Tracker) Extract(env map[string]string) map[string]FeatureSnapshot {
	out := make(map[string]FeatureSnapshot, len(env))
	for k, v := range env {
		out[k] = t.snapshot(k, v)
	}
	return out
}

func (t *Tracker) snapshot(key, value string) FeatureSnapshot {
	n := utf8.RuneCountInString(value)
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return FeatureSnapshot{
		Key:           key,
		TokenType:     t.sigs.TokenType(value),
		Entropy:       detectors.Entropy(value),
		Length:        n,
		DigitFraction: float64(digits) / float64(max(1, n)),
	}
}

// Analyze compares env against the stored baseline. When no usable baseline
// exists it persists the current features (unless disabled) and reports no
// anomalies. An existing baseline is never modified.
func (t *Tracker) Analyze(env map[string]string) (Report, error) {
	var rep Report
	err := t.withLock(func() error {
		cur := t.Extract(env)
		base, err := t.load()
		switch {
		case errors.Is(err, ErrCorrupt):
			log.Warn().Err(err).Str("path", t.Path()).Msg("baseline unreadable; treating as absent")
		case errors.Is(err, ErrNoBaseline):
		case err != nil:
			return err
		}
		if err != nil {
			if !t.persistIfMissing {
				rep.Notes = append(rep.Notes, NoteNoBaseline)
				return nil
			}
			if err := t.write(cur); err != nil {
				return err
			}
			log.Info().Str("path", t.Path()).Int("keys", len(cur)).Msg("baseline created")
			rep.Created = true
			rep.Notes = append(rep.Notes, NoteCreated)
			return nil
		}
		rep = Compare(base.Features, cur, t.thresholds)
		return nil
	})
	return rep, err
}

// Compare checks cur against base without touching disk. Keys are visited in
// sorted order; keys only in base are not reported.
func Compare(base, cur map[string]FeatureSnapshot, th Thresholds) Report {
	var rep Report
	keys := make([]string, 0, len(cur))
	for k := range cur {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c := cur[k]
		b, ok := base[k]
		if !ok {
			rep.Notes = append(rep.Notes, fmt.Sprintf("Key '%s' not in baseline (new key)", k))
			continue
		}
		if math.Abs(c.Entropy-b.Entropy) > th.EntropyDelta {
			rep.Anomalies = append(rep.Anomalies, Anomaly{
				Type:    AnomalyEntropy,
				Key:     k,
				Message: fmt.Sprintf("Entropy for %s changed from %.2f -> %.2f", k, b.Entropy, c.Entropy),
			})
		}
		if b.Length > 0 && math.Abs(float64(c.Length-b.Length))/float64(b.Length) > th.LengthRatio {
			rep.Anomalies = append(rep.Anomalies, Anomaly{
				Type:    AnomalyLength,
				Key:     k,
				Message: fmt.Sprintf("Length for %s changed from %d -> %d", k, b.Length, c.Length),
			})
		}
	}
	return rep
}

// Rebaseline replaces the stored baseline with the features of env.
func (t *Tracker) Rebaseline(env map[string]string) error {
	return t.withLock(func() error {
		return t.write(t.Extract(env))
	})
}

// Load reads the stored baseline. It returns ErrNoBaseline or ErrCorrupt
// (wrapped) when there is nothing usable.
func (t *Tracker) Load() (Baseline, error) {
	return t.load()
}

func (t *Tracker) load() (Baseline, error) {
	var b Baseline
	data, err := os.ReadFile(t.Path())
	if errors.Is(err, os.ErrNotExist) {
		return b, ErrNoBaseline
	}
	if err != nil {
		return b, fmt.Errorf("%w: read: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return Baseline{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if b.Features == nil {
		return Baseline{}, fmt.Errorf("%w: no features", ErrCorrupt)
	}
	return b, nil
}

func (t *Tracker) write(features map[string]FeatureSnapshot) error {
	b := Baseline{Name: t.name, CreatedAt: t.now().UTC(), Features: features}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	return atomicWriteFile(t.Path(), data, 0600)
}

func (t *Tracker) withLock(fn func() error) error {
	if err := os.MkdirAll(t.dir, 0700); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}
	return withLockedFile(t.lockPath(), fn)
}
