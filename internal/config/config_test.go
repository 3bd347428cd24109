package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/envcheck/envcheck/internal/detectors"
	"github.com/envcheck/envcheck/internal/types"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	body := `threads: 4
max_bytes: 123
min_severity: medium
known_types_only: true
exclude_dirs: [fixtures, testdata]
patterns:
  - name: INTERNAL_TOKEN
    regex: "itk_[a-z0-9]{20}"
    class: critical
keywords: [secret, credential]
drift:
  entropy_delta: 1.5
`
	p := writeTemp(t, dir, "envcheck.yaml", body)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 4 {
		t.Fatalf("expected threads=4, got %#v", cfg.Threads)
	}
	if cfg.MaxBytes == nil || *cfg.MaxBytes != 123 {
		t.Fatalf("expected max_bytes=123, got %#v", cfg.MaxBytes)
	}
	if cfg.KnownTypesOnly == nil || !*cfg.KnownTypesOnly {
		t.Fatalf("expected known_types_only=true")
	}
	if len(cfg.ExcludeDirs) != 2 || cfg.ExcludeDirs[1] != "testdata" {
		t.Fatalf("unexpected exclude_dirs %#v", cfg.ExcludeDirs)
	}
	if len(cfg.Patterns) != 1 || cfg.Patterns[0].Name != "INTERNAL_TOKEN" || cfg.Patterns[0].Class != "critical" {
		t.Fatalf("unexpected patterns %#v", cfg.Patterns)
	}
	sev, err := Severity(cfg.MinSeverity, types.SevInfo)
	if err != nil || sev != types.SevMedium {
		t.Fatalf("expected MEDIUM, got %v (%v)", sev, err)
	}
	th := cfg.Thresholds()
	if th.EntropyDelta != 1.5 || th.LengthRatio != 0.5 {
		t.Fatalf("unexpected thresholds %#v", th)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	p := writeTemp(t, t.TempDir(), "bad.yml", "threads: [\n")
	if _, err := LoadFile(p); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAnalyzer_UsesConfiguredPatterns(t *testing.T) {
	cfg := FileConfig{
		Patterns: []detectors.PatternSpec{
			{Name: "INTERNAL_TOKEN", Regex: "itk_[a-z0-9]{20}", Class: "critical"},
			{Name: "BROKEN", Regex: "([", Class: "provider"},
		},
		Keywords: []string{"credential"},
	}
	a := cfg.Analyzer()
	fs := detectors.Dedupe(a.Scan("x.env", []byte("VALUE=itk_abcdefghij0123456789\n")))
	if len(fs) != 1 || fs[0].Signature != "INTERNAL_TOKEN" || fs[0].Severity != types.SevHigh {
		t.Fatalf("unexpected findings %#v", fs)
	}
	if a.Signatures.Len() <= 1 {
		t.Fatalf("built-in signatures should be kept")
	}
}

func TestMerge_LocalOverridesGlobal(t *testing.T) {
	four, nine := 4, 9
	low := "low"
	delta := 3.0
	global := FileConfig{Threads: &four, MinSeverity: &low, ExcludeDirs: []string{"a"}, Keywords: []string{"secret"}}
	local := FileConfig{Threads: &nine, ExcludeDirs: []string{"b"}, Drift: &DriftConfig{EntropyDelta: &delta}}

	got := global.Merge(local)
	if *got.Threads != 9 {
		t.Fatalf("expected local threads, got %d", *got.Threads)
	}
	if got.MinSeverity == nil || *got.MinSeverity != "low" {
		t.Fatalf("expected global min_severity to survive")
	}
	if len(got.ExcludeDirs) != 2 {
		t.Fatalf("expected exclude_dirs to append, got %#v", got.ExcludeDirs)
	}
	if len(got.Keywords) != 1 {
		t.Fatalf("expected global keywords kept, got %#v", got.Keywords)
	}
	if got.Thresholds().EntropyDelta != 3.0 {
		t.Fatalf("expected drift override")
	}
	if len(global.ExcludeDirs) != 1 {
		t.Fatalf("merge must not mutate receiver")
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "envcheck.yaml", "threads: 1\n")
	writeTemp(t, dir, ".envcheck.yaml", "threads: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 7 {
		t.Fatalf("expected threads=7 from .envcheck.yaml, got %#v", cfg.Threads)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "envcheck")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p := filepath.Join(cfgDir, "config.yml")
	if err := os.WriteFile(p, []byte("threads: 9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Threads == nil || *cfg.Threads != 9 {
		t.Fatalf("expected threads=9 from global config, got %#v", cfg.Threads)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestLoad_MergesBoth(t *testing.T) {
	xdg := t.TempDir()
	if err := os.MkdirAll(filepath.Join(xdg, "envcheck"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeTemp(t, filepath.Join(xdg, "envcheck"), "config.yml", "threads: 2\nmax_bytes: 10\n")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	repo := t.TempDir()
	writeTemp(t, repo, ".envcheck.yml", "threads: 6\n")
	cfg, err := Load(repo)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg.Threads != 6 || *cfg.MaxBytes != 10 {
		t.Fatalf("unexpected merge result threads=%d max_bytes=%d", *cfg.Threads, *cfg.MaxBytes)
	}
}
