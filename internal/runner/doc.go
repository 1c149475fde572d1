// Package runner executes one polling cycle: fetch the page, extract the race
// table, compare it with the stored snapshot, notify and store the new snapshot.
package runner
