package track

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"volscope/pkg/geometry"
)

// LoadCSV reads tracks from a CSV file with columns
// track_id,t,z,y,x — a header row is detected and skipped. Rows are grouped
// by track id and each track's points are sorted by time.
func LoadCSV(path string) ([]*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracks file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses tracks from CSV data.
func ReadCSV(r io.Reader) ([]*Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	byID := make(map[int]*Track)
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tracks csv: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("tracks csv line %d: want at least 5 columns, got %d", line, len(record))
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("tracks csv line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}

		id := int(vals[0])
		t, ok := byID[id]
		if !ok {
			t = &Track{ID: id}
			byID[id] = t
		}
		t.Points = append(t.Points, Point{
			T:   int(vals[1]),
			Pos: geometry.Point3D{X: vals[4], Y: vals[3], Z: vals[2]},
		})
	}

	tracks := make([]*Track, 0, len(byID))
	for _, t := range byID {
		t.sortPoints()
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			return true
		}
	}
	return false
}
