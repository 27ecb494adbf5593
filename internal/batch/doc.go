// Package batch walks a directory tree and strips metadata from every
// matching audio file.
//
// # Runner
//
// The Runner drives the per-file pipeline:
//
//  1. Validate the root directory
//  2. Collect files with a known extension, in lexical order
//  3. Locate tag regions
//  4. Save embedded cover art (optional)
//  5. Strip the regions and atomically replace the file
//
// # Basic Usage
//
//	runner, err := batch.NewRunner(settings, func(event batch.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	stats, err := runner.Run(ctx, "/music")
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//   - LevelSuccess: metadata removed (or, in a dry run, would be removed)
//   - LevelInfo: no metadata found
//   - LevelError: the file failed; the original is unchanged
//   - LevelWarning: unreadable directories, cover art that could not be saved
//   - LevelVerbose: skipped files and other details
//
// Every processed file produces exactly one event with Result set.
//
// # Cancellation
//
// The context is checked before each file. A file that has started is
// always finished, so the batch stops with model.ErrInterrupted and every
// file is either fully stripped or untouched.
package batch
