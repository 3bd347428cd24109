// Package envcheck provides the command-line interface for envcheck. It wires
// the scan, env, baseline, snapshot, drift and known subcommands, parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/envcheck/envcheck/cmd/envcheck"
//	func main() { envcheck.Execute() }
package envcheck
