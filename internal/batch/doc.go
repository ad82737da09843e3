// Package batch runs many generation jobs under a concurrency bound.
//
// Scheduler claims jobs in index order, isolates failures so one failed job
// never cancels its siblings, and reports a full Snapshot after every state
// transition. Manifest files describe batches on disk.
package batch
