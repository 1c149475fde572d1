package race

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2025, 10, 12, 9, 30, 0, 0, time.FixedZone("EDT", -4*3600))

	snap := NewSnapshot([]Race{raceA, raceB}, at)

	assert.Equal(t, "2025-10-12T13:30:00Z", snap.ScrapedAt)
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, Checksum([]Race{raceA, raceB}), snap.Checksum)
}

func TestNewSnapshot_NilRaces(t *testing.T) {
	snap := NewSnapshot(nil, time.Now())

	require.NotNil(t, snap.Races)
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"races":[]`)
}

func TestSnapshotLen_Nil(t *testing.T) {
	var snap *Snapshot
	assert.Equal(t, 0, snap.Len())
}

func TestSnapshotTime(t *testing.T) {
	tests := []struct {
		name      string
		scrapedAt string
		want      time.Time
		wantOK    bool
	}{
		{
			name:      "RFC3339",
			scrapedAt: "2025-10-12T13:30:00Z",
			want:      time.Date(2025, 10, 12, 13, 30, 0, 0, time.UTC),
			wantOK:    true,
		},
		{
			name:      "ISO timestamp without zone",
			scrapedAt: "2025-10-12T13:30:00.123456",
			want:      time.Date(2025, 10, 12, 13, 30, 0, 123456000, time.UTC),
			wantOK:    true,
		},
		{
			name:      "empty",
			scrapedAt: "",
			wantOK:    false,
		},
		{
			name:      "garbage",
			scrapedAt: "yesterday",
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := (&Snapshot{ScrapedAt: tt.scrapedAt}).Time()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum([]Race{raceA, raceB}), Checksum([]Race{raceA, raceB}))
	assert.NotEqual(t, Checksum([]Race{raceA, raceB}), Checksum([]Race{raceB, raceA}))
	assert.NotEqual(t, Checksum([]Race{raceB}), Checksum([]Race{raceX}))

	// Field boundaries matter: moving text between fields changes the checksum.
	left := Race{Name: "ab", Date: "c"}
	right := Race{Name: "a", Date: "bc"}
	assert.NotEqual(t, Checksum([]Race{left}), Checksum([]Race{right}))
}

func TestRaceJSONKeys(t *testing.T) {
	data, err := json.Marshal(Race{Name: "NYC Half", Date: "3/15", ReleaseDate: "Oct/Nov (Lottery)", Notes: ""})
	require.NoError(t, err)
	assert.JSONEq(t, `{"race":"NYC Half","date":"3/15","release_date":"Oct/Nov (Lottery)","notes":""}`, string(data))
}
