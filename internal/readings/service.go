package readings

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/flood-monitoring/internal/floodapi"
)

// Fetcher abstracts the upstream readings source.
type Fetcher interface {
	FetchReadings(ctx context.Context, stationID string, since time.Time, limit int) ([]floodapi.RawReading, error)
}

// Service runs the fetch-and-normalize pipeline for a station.
type Service struct {
	fetcher      Fetcher
	itemLimit    int
	lookbackDays int
}

func NewService(fetcher Fetcher, itemLimit, lookbackDays int) *Service {
	return &Service{
		fetcher:      fetcher,
		itemLimit:    itemLimit,
		lookbackDays: lookbackDays,
	}
}

// LookbackDaysLimit returns the largest accepted days-back window.
func (s *Service) LookbackDaysLimit() int {
	return s.lookbackDays
}

// ValidateDaysBack rejects lookback windows outside [1, limit]. It is
// called before any network request is made.
func (s *Service) ValidateDaysBack(days int) error {
	if days < 1 || days > s.lookbackDays {
		return fmt.Errorf("days-back %d is not in required range 1-%d", days, s.lookbackDays)
	}
	return nil
}

// Collect fetches readings for the station over the trailing window and
// normalizes them into per-measure series.
func (s *Service) Collect(ctx context.Context, stationID string, daysBack int) ([]Series, error) {
	if err := s.ValidateDaysBack(daysBack); err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, 0, -daysBack)

	items, err := s.fetcher.FetchReadings(ctx, stationID, since, s.itemLimit)
	if err != nil {
		return nil, err
	}

	return Normalize(items), nil
}
