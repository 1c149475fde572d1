// Package scraper fetches the text that carries the race schedule table.
//
// Three source modes are supported:
//   - reddit: the post's JSON listing (<url>.json); the text is the post selftext
//   - html: any HTML page; every <table> is rendered back to markdown-table text
//   - text: the response body is used as-is
//
// The fetched text is handed to the table package to locate and parse the
// schedule.
package scraper
