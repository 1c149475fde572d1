package race

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Race represents one row of the race schedule table.
// All fields are kept exactly as they appear in the source, markdown included.
type Race struct {
	Name        string `json:"race"`
	Date        string `json:"date"`
	ReleaseDate string `json:"release_date"`
	Notes       string `json:"notes"`
}

// Snapshot represents the race list at a point in time
type Snapshot struct {
	Races     []Race `json:"races"`
	ScrapedAt string `json:"scraped_at"`         // RFC3339 timestamp
	Checksum  string `json:"checksum,omitempty"` // xxhash64 of Races, hex
}

// NewSnapshot creates a snapshot of races captured at the given time
func NewSnapshot(races []Race, scrapedAt time.Time) *Snapshot {
	if races == nil {
		races = make([]Race, 0)
	}
	return &Snapshot{
		Races:     races,
		ScrapedAt: scrapedAt.UTC().Format(time.RFC3339),
		Checksum:  Checksum(races),
	}
}

// Len returns the number of races, treating a nil snapshot as empty
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Races)
}

// Time parses ScrapedAt. Snapshots written by older deployments carry a local
// ISO-8601 timestamp without zone, which is accepted as UTC.
func (s *Snapshot) Time() (time.Time, bool) {
	if s == nil || s.ScrapedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s.ScrapedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Checksum returns a stable fingerprint of an ordered race list
func Checksum(races []Race) string {
	h := xxhash.New()
	for _, r := range races {
		// Fields are separated by a byte that cannot appear in parsed text.
		_, _ = h.WriteString(strings.Join([]string{r.Name, r.Date, r.ReleaseDate, r.Notes}, "\x1f"))
		_, _ = h.WriteString("\x1e")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
