// Package tasks copies newly liked Spotify tracks into the Yandex Music liked collection.
//
// # Core Operation
//
// [SyncEngine.Run] performs one pass:
//
//  1. Resolves the Yandex Music account and loads the sync cursor ([state.State])
//  2. Reads the tracks already liked on Yandex Music (a failure here only disables deduplication)
//  3. Fetches Spotify likes newer than the cursor, oldest first
//  4. For each track: skip it if processed before, otherwise search Yandex Music with
//     "<artists> — <name>", take the first result and like it unless it is already liked
//  5. Marks the track processed and saves the cursor before moving on
//
// Yandex Music timeouts are retried a fixed number of times with a fixed delay. A search that
// still times out counts as "not found"; any other search error aborts the run and leaves the
// track unprocessed. Like errors count as "failed". Configuration and authentication errors
// abort the run.
//
// # Progress Reporting
//
// Progress updates are sent on a channel with select/default, so a slow or absent reader never
// blocks the sync. With [EngineOptions.WaitForProgress] the engine waits for the reader instead,
// for callers that print every update. The [ProgressUpdate] Data field carries the
// [models.TrackOutcome] for per-track updates and the [SyncResult] for the final one.
//
// # History
//
// The optional [Recorder] (repositories.HistoryRecorder) stores each run and its track outcomes.
// Recorder failures are logged and ignored.
package tasks
