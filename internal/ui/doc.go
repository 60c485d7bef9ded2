// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for queue runs:
//  1. [QueueView] : Browse the persisted label queue, add and remove labels
//  2. [AddView] : Enter a label id, verified against the catalog before queueing
//  3. [ConfirmView] : Confirm a queue run or a missing-data pass
//  4. [RunView] : Monitor real-time progress, pauses and label failures
//  5. [ResultView] : Display run counts and failed labels
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Run events flow through a buffered channel from the Processor, providing non-blocking status reporting during runs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
