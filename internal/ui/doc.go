// Package ui implements an interactive terminal journal browser using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [ListView] : Browse dreams, filter them with "/" and toggle favorites or sort order
//  2. [DetailView] : Read a dream with its story, analysis and image links
//  3. [ConfirmView] : Confirm a delete
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// All reads and writes go through a [journal.Store], so the TUI behaves the same for guests and signed-in users.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
