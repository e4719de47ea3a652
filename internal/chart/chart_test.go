package chart

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/flood-monitoring/internal/readings"
)

func testSeries(n int) []readings.Series {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	series := make([]readings.Series, 0, n)
	for i := 0; i < n; i++ {
		s := readings.Series{
			Measure: string(rune('A'+i)) + "-level-mASD",
			Unit:    "mASD",
		}
		for j := 0; j < 4; j++ {
			s.Points = append(s.Points, readings.Point{
				Time:  base.Add(time.Duration(j) * 15 * time.Minute),
				Value: float64(i) + float64(j)*0.1,
			})
		}
		series = append(series, s)
	}
	return series
}

func TestSaveWritesOneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "station_1491TH_2024-03-01T12:00.png")

	if err := Save(testSeries(2), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected plot file: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("plot file is empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file, got %d", len(entries))
	}
}

func TestSaveSVG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.svg")

	if err := Save(testSeries(1), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected plot file: %v", err)
	}
}

// TestSaveNoSeries verifies that an empty result produces no file at all
// rather than a blank image.
func TestSaveNoSeries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plot.png")

	if err := Save(nil, path); !errors.Is(err, ErrNoSeries) {
		t.Fatalf("expected ErrNoSeries, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("no file should be written for empty input")
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.bmp")

	if err := Save(testSeries(1), path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
