package readings

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ExportCSV writes one CSV file per series into dir, named
// station_<id>_<measure>_<stamp>.csv with a "datetime,<measure>" header.
// Rows keep the series order, i.e. timestamp ascending. Returns the
// written file paths.
func ExportCSV(series []Series, dir, stationID, stamp string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	paths := make([]string, 0, len(series))
	for _, s := range series {
		name := fmt.Sprintf("station_%s_%s_%s.csv", stationID, s.Measure, stamp)
		path := filepath.Join(dir, name)

		if err := writeSeriesCSV(path, s); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func writeSeriesCSV(path string, s Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"datetime", s.Measure}); err != nil {
		return err
	}

	for _, p := range s.Points {
		row := []string{
			p.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
