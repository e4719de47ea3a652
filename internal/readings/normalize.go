package readings

import (
	"log"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/flood-monitoring/internal/floodapi"
)

// Normalize groups raw API items by measure name and sorts each group's
// points by timestamp ascending; the API does not guarantee order. Items
// with unparseable timestamps are skipped, and groups that end up empty
// are dropped so the renderer never sees a blank panel. Series are
// returned sorted by measure name for deterministic panel order.
func Normalize(items []floodapi.RawReading) []Series {
	grouped := make(map[string][]Point)

	for _, item := range items {
		measure := measureName(item.Measure)
		if measure == "" {
			continue
		}

		ts, err := parseTimestamp(item.DateTime)
		if err != nil {
			log.Printf("WARN: skipping reading with bad timestamp %q: %v", item.DateTime, err)
			continue
		}

		grouped[measure] = append(grouped[measure], Point{Time: ts, Value: item.Value})
	}

	series := make([]Series, 0, len(grouped))
	for measure, points := range grouped {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Time.Before(points[j].Time)
		})

		series = append(series, Series{
			Measure: measure,
			Unit:    measureUnit(measure),
			Points:  points,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Measure < series[j].Measure
	})

	return series
}

// measureName extracts the short measure name from the measure resource URL.
func measureName(u string) string {
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

// measureUnit returns the unit suffix of a measure name (e.g. "mASD").
func measureUnit(measure string) string {
	parts := strings.Split(measure, "-")
	return parts[len(parts)-1]
}

// parseTimestamp accepts the API's ISO-8601 timestamps, with or without a
// zone designator.
func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
