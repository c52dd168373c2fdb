// Package output writes query result rows to the terminal or to a pipe.
//
// FormatTable renders a bordered table with lipgloss and is meant for
// humans. FormatJSON writes one JSON object per row, keyed by column name,
// and is meant for scripts. FormatAuto picks the table when stdout is a
// terminal and JSON otherwise.
package output
