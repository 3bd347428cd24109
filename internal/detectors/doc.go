// Package detectors turns candidate values into findings. It owns the
// signature table, the entropy and keyword scorers, the severity policy and
// the deduplication of overlapping findings.
package detectors
