// Package modal classifies the content shape of text (table, code, list,
// structured data or prose) and resolves language hints from filenames and
// fenced code info strings.
package modal
