package readings

import "time"

// Point is a single (time, value) sample within a series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series holds all readings for one measure, ordered by time ascending.
// Measure names look like "1491TH-level-stage-i-15_min-mASD"; the final
// dash-separated token is the unit.
type Series struct {
	Measure string  `json:"measure"`
	Unit    string  `json:"unit"`
	Points  []Point `json:"points"`
}
