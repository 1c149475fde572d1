// Package table locates and parses the race schedule table embedded in free-form text.
//
// The table is plain markdown:
//
//	|Race|Date|Release Date|Notes|
//	|:-|:-|:-|:-|
//	|Virtual Resolution 5K|1/1-1/10\*|December 2025|Virtual|
//
// Locate finds the block that starts with the header signature and ends at the
// first blank line. CRLF line endings are normalised to LF first. A line holding
// only spaces or tabs counts as blank, so it also ends the block, where a match
// on two consecutive newlines would read past it. Parse turns the block into races. Neither function returns
// an error: a missing table is reported as not found, and rows that do not
// decompose into four cells are dropped.
//
// Cells are split on every pipe character. Markdown escapes are not interpreted,
// so an unescaped pipe inside a cell shifts the remaining columns of that row.
package table
