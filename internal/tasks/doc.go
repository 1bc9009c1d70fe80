// Package tasks implements the playlist split operation.
//
// The core abstraction is [SplitEngine], which sequences the provider calls:
// fetch the source playlist, partition its tracks into contiguous balanced
// segments, then create one playlist per segment and append its tracks,
// optionally in paced batches. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks
