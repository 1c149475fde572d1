package table

import (
	"strings"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const (
	delimiter = "|"

	// skipLines is the number of leading lines dropped by position: the header
	// row and the alignment row. Their content is not checked.
	skipLines = 2

	columns = 4
)

// Parse converts a located table block into races, in row order.
// Rows that do not yield at least four cells are skipped; cells past the fourth
// are ignored.
func Parse(block string) []race.Race {
	races := make([]race.Race, 0)

	lines := strings.Split(strings.TrimSpace(strings.ReplaceAll(block, "\r\n", "\n")), "\n")
	if len(lines) <= skipLines {
		return races
	}

	for _, line := range lines[skipLines:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells, ok := splitRow(line)
		if !ok {
			continue
		}

		races = append(races, race.Race{
			Name:        cells[0],
			Date:        cells[1],
			ReleaseDate: cells[2],
			Notes:       cells[3],
		})
	}

	return races
}

// Extract locates the table in text and parses it.
// A missing table yields an empty list.
func Extract(text, header string) []race.Race {
	block, ok := Locate(text, header)
	if !ok {
		return make([]race.Race, 0)
	}
	return Parse(block)
}

// splitRow splits one table row into trimmed cells.
// One empty cell produced by a leading delimiter is dropped. The empty cell after
// a trailing delimiter is dropped too, unless the row would then be short of the
// notes column: "|10K|1/10|Oct 2025|" reads as a row with empty notes.
func splitRow(line string) ([]string, bool) {
	parts := strings.Split(line, delimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > columns && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	if len(parts) < columns {
		return nil, false
	}

	// A row made only of delimiters has no usable cells.
	blank := true
	for _, p := range parts {
		if p != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil, false
	}

	return parts[:columns], true
}
