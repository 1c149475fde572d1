// Package race provides the types and change detection for the NYRR race schedule.
//
// A Race is one row of the schedule table. A Snapshot is the full ordered list of
// races captured at one point in time and is the baseline for the next run. Diff
// compares a freshly parsed list against the previous snapshot by position: rows
// are never matched by name, and any change in row count marks every current
// race as changed.
package race
