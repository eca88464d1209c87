// Package ui implements the interactive printer picker using bubbletea's Elm architecture.
//
// The picker has three views:
//  1. [LoadingView] : printers are being enumerated
//  2. [PrinterListView] : choose a queue from a filterable list
//  3. [ConfirmView] : confirm the choice (y/n)
//
// With a single printer the list is skipped and the picker asks for confirmation directly.
// [PickPrinter] runs the program and returns the chosen queue ID, or [shared.ErrNoSelection].
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
