// Package ui renders pipeline output for the terminal with lipgloss styles.
//
// The renderers return strings so the CLI can write them to any [io.Writer]:
//   - [FolderList] : a folder listing with processed markers
//   - [ProgressLine] : one line per [tasks.ProgressUpdate] while a task runs
//   - [FileTable] : the file list of an analyzed task with its dispositions
//   - [SummaryView] : the outcome of a finished or cancelled task
//
// [ResolveModel] is a bubbletea program for picking a date per file. It sends each
// choice through a [Resolver] and finishes when the user presses f.
//
// Styles degrade to plain text when the output is not a terminal.
package ui
