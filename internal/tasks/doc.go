// Package tasks runs the Reader → PDF → print queue sync with real-time progress reporting.
//
// # Run
//
// [SyncPipeline.Run] performs one sequential pass:
//
//  1. Load the [models.SyncState] (or use the one given at construction)
//  2. Resolve the target printer, failing with [shared.ErrPrinterNotFound] before any fetch
//  3. Fetch every document updated after the watermark, then advance and persist the watermark
//  4. Drop documents whose identifier was already printed or permanently skipped
//  5. For each remaining document: retrieve it, write or render a PDF into a per-item temp
//     file, submit it, wait the settle delay, delete the file, mark it processed and persist
//  6. Persist once more
//
// Per-article failures ([shared.IsRecoverable]) are logged and counted; the article stays
// unprocessed and prints if a later fetch returns it again. Anything else aborts the run.
//
// # Progress Reporting
//
// Updates are sent on an optional channel with select/default so reporting never blocks.
//
// # History
//
// The optional [JobRecorder] receives one [models.PrintJob] per article outcome.
// Recorder errors are logged and otherwise ignored.
package tasks
