// Package engine walks a directory tree and runs the detector pipeline over
// every eligible file with a bounded pool of workers. It is internal; external
// consumers should use the facade in pkg/core.
package engine
