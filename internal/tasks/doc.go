// Package tasks implements the playlist shuffle workflow with real-time progress reporting.
//
// # Core Operations
//
// [ShuffleEngine] exposes three operations:
//
//  1. [ShuffleEngine.LoadTracks] : complete ordered listing of a playlist
//     - Fetches the playlist, which carries the first page of items
//     - Follows continuation tokens until the listing is exhausted
//
//  2. [ShuffleEngine.ShuffleAndPublish] : shuffled copy of a listing
//     - Uniform in-place shuffle
//     - Skips items without a track reference (removed tracks, local files)
//     - Creates the destination for the current user, described as "Shuffled version of <source>"
//     - Appends references in batches of 100, in shuffled order
//
//  3. [ShuffleEngine.Run] : LoadTracks, empty-source check, name derivation and ShuffleAndPublish
//
// The source playlist is never modified.
//
// # Progress Reporting
//
// Run accepts an optional channel of [ProgressUpdate]. Updates use select with default to prevent blocking.
//
// # Partial Failures
//
// Any API failure aborts the workflow. A destination that was created but not fully populated is kept by default.
// With [WithRollback] the engine unfollows it instead, which deletes it for the owner, and a failed unfollow is
// reported as [shared.ErrRollbackFailed] joined with the original error.
package tasks
