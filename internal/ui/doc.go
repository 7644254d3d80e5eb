// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a single shuffle:
//  1. [PlaylistListView] : Browse the current user's playlists
//  2. [ConfirmView] : Confirm shuffling the selected playlist
//  3. [ShuffleView] : Follow progress reported by the [tasks.ShuffleEngine]
//  4. [ResultView] : Show the new playlist and its URL
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// The shuffle runs in its own goroutine and progress updates flow back through a channel, so the interface never blocks on the API.
//
// Keyboard navigation uses vim-style bindings (j/k, / to filter, enter, esc, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
