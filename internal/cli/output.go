package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
	"github.com/pfrederiksen/nyrr-watch/internal/runner"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	RunID       string        `json:"run_id"`
	CheckedAt   time.Time     `json:"checked_at"`
	Reason      race.Reason   `json:"reason"`
	RaceCount   int           `json:"race_count"`
	Checksum    string        `json:"checksum"`
	Changes     []race.Change `json:"changes"`
	ChangeCount int           `json:"change_count"`
	Notified    bool          `json:"notified"`
	Saved       bool          `json:"saved"`
	Refreshed   bool          `json:"refreshed,omitempty"`
}

// NewOutputResult summarizes a run for display
func NewOutputResult(res *runner.Result, refreshed bool) *OutputResult {
	out := &OutputResult{
		RunID:     res.RunID,
		CheckedAt: res.CapturedAt.UTC(),
		RaceCount: len(res.Races),
		Checksum:  res.Checksum,
		Changes:   []race.Change{},
		Notified:  res.Notified,
		Saved:     res.Saved,
		Refreshed: refreshed,
	}
	if res.Diff != nil {
		out.Reason = res.Diff.Reason
		out.Changes = res.Diff.Changes
		out.ChangeCount = len(res.Diff.Changes)
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return errors.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs any value as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.Refreshed {
		fmt.Fprintf(w, "Snapshot refreshed successfully (%d races).\n", result.RaceCount)
		return nil
	}

	if result.ChangeCount == 0 {
		fmt.Fprintf(w, "No changes detected (%d races).\n", result.RaceCount)
		return nil
	}

	for _, c := range result.Changes {
		fmt.Fprintf(w, "CHANGED: %s | %s | %s\n", c.Race.Name, c.Race.Date, c.Race.ReleaseDate)
		if verbose {
			fmt.Fprintf(w, "     Row: %d\n", c.Index+1)
			if c.Race.Notes != "" {
				fmt.Fprintf(w, "     Notes: %s\n", c.Race.Notes)
			}
			if c.Previous != nil {
				fmt.Fprintf(w, "     Was: %s | %s | %s\n", c.Previous.Name, c.Previous.Date, c.Previous.ReleaseDate)
			}
			if len(c.Fields) > 0 {
				fmt.Fprintf(w, "     Fields: %v\n", c.Fields)
			}
		}
	}

	fmt.Fprintf(w, "\nTotal: %d changed of %d races (%s)\n", result.ChangeCount, result.RaceCount, result.Reason)
	if verbose {
		fmt.Fprintf(w, "Run: %s  Checksum: %s\n", result.RunID, result.Checksum)
	}
	return nil
}

// WriteRaces prints a parsed race table
func WriteRaces(w io.Writer, races []race.Race, format OutputFormat) error {
	switch format {
	case FormatJSON:
		if races == nil {
			races = []race.Race{}
		}
		return writeJSON(w, races)
	case FormatText:
		if len(races) == 0 {
			fmt.Fprintln(w, "No races found.")
			return nil
		}
		for i, r := range races {
			fmt.Fprintf(w, "%3d. %s | %s | %s", i+1, r.Name, r.Date, r.ReleaseDate)
			if r.Notes != "" {
				fmt.Fprintf(w, " | %s", r.Notes)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "\nTotal: %d races\n", len(races))
		return nil
	default:
		return errors.Errorf("unknown format: %s", format)
	}
}
