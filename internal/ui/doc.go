// Package ui implements the interactive sync screen using bubbletea's Elm architecture.
//
// The TUI walks through three views:
//  1. [ConfirmView] : shows the state file summary and asks before syncing
//  2. [SyncView] : spinner, progress bar and a scrolling log of per-track outcomes
//  3. [ResultView] : final counters plus a browsable list of tracks that were not found or failed
//
// The [Model] implements bubbletea's Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the sync engine. The engine never blocks on it,
// so a slow terminal only drops intermediate updates.
package ui
