// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [CatalogView] : Browse the catalog page by page and add titles to the collection
//  2. [CollectionView] : Browse the collection and track episode progress
//
// Every catalog row shows an add badge read from the membership registry at render time, so
// an add started with [tasks.Engine.Begin] shows as pending immediately and flips to added
// (or back) when the [tasks.Engine.Commit] command reports.
//
// Fetches carry the view generation they were issued under. Responses that arrive after the
// user paged or switched views are dropped.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
