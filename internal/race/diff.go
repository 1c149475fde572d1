package race

// Reason explains why a diff produced its result
type Reason string

const (
	ReasonFirstRun       Reason = "first_run"       // no previous snapshot
	ReasonLengthMismatch Reason = "length_mismatch" // row count changed, positions not comparable
	ReasonPositional     Reason = "positional"      // same length, compared index by index
)

// Change describes one current race reported as changed
type Change struct {
	Index    int      `json:"index"`
	Race     Race     `json:"race"`
	Previous *Race    `json:"previous,omitempty"` // race at the same index in the previous snapshot
	Fields   []string `json:"fields,omitempty"`   // JSON names of the fields that differ
}

// DiffResult contains the results of comparing current races to a snapshot
type DiffResult struct {
	Reason  Reason   `json:"reason"`
	Changes []Change `json:"changes"`
}

// Races returns the changed races in current order
func (d *DiffResult) Races() []Race {
	races := make([]Race, 0, len(d.Changes))
	for _, c := range d.Changes {
		races = append(races, c.Race)
	}
	return races
}

// HasChanges reports whether any race changed
func (d *DiffResult) HasChanges() bool {
	return len(d.Changes) > 0
}

// Diff compares current races against the previous snapshot.
//
// With no previous snapshot every race is new. When the number of races differs
// every race is reported, since an inserted or removed row shifts all positions
// after it. Otherwise races are compared index by index; a reordering shows up as
// a change at every shifted index.
func Diff(previous *Snapshot, current []Race) *DiffResult {
	if previous == nil {
		return allChanged(ReasonFirstRun, current)
	}
	if len(previous.Races) != len(current) {
		return allChanged(ReasonLengthMismatch, current)
	}

	result := &DiffResult{
		Reason:  ReasonPositional,
		Changes: make([]Change, 0),
	}
	for i, cur := range current {
		prev := previous.Races[i]
		if cur == prev {
			continue
		}
		result.Changes = append(result.Changes, Change{
			Index:    i,
			Race:     cur,
			Previous: &prev,
			Fields:   changedFields(prev, cur),
		})
	}
	return result
}

func allChanged(reason Reason, current []Race) *DiffResult {
	result := &DiffResult{
		Reason:  reason,
		Changes: make([]Change, 0, len(current)),
	}
	for i, r := range current {
		result.Changes = append(result.Changes, Change{Index: i, Race: r})
	}
	return result
}

func changedFields(prev, cur Race) []string {
	var fields []string
	if prev.Name != cur.Name {
		fields = append(fields, "race")
	}
	if prev.Date != cur.Date {
		fields = append(fields, "date")
	}
	if prev.ReleaseDate != cur.ReleaseDate {
		fields = append(fields, "release_date")
	}
	if prev.Notes != cur.Notes {
		fields = append(fields, "notes")
	}
	return fields
}
