// Package tasks runs the multi-step operations behind dream creation and export.
//
// [Composer] turns raw input into a models.Draft: a recording is transcribed, a title is
// generated when none was given, and then a story (with optional scene images) or an analysis is
// requested. [DownloadImages] fetches generated illustrations with a bounded, rate limited
// worker pool so exports do not depend on image hosting staying up.
//
// # Progress Reporting
//
// Both operations accept an optional channel of [ProgressUpdate]. Updates use select with default
// so a slow or absent reader never stalls the work.
package tasks
