// Package baseline records per-key features of environment values and
// reports drift against a previously persisted snapshot of those features.
//
// A Tracker owns one baseline file inside a directory. Analyze is a
// read-only comparison except on the very first run, when the current
// features become the baseline. Rebaseline is the only explicit overwrite.
// Both hold an exclusive lock on a sibling ".lock" file so concurrent
// processes sharing a directory never interleave their read-check-write.
package baseline
