package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/i474232898/flood-monitoring/internal/chart"
	"github.com/i474232898/flood-monitoring/internal/config"
	"github.com/i474232898/flood-monitoring/internal/floodapi"
	"github.com/i474232898/flood-monitoring/internal/readings"
	"github.com/i474232898/flood-monitoring/internal/registry"
)

var (
	stationID        string
	daysBack         int
	updateStationIDs bool
	saveNotDisplay   bool
	saveCSV          bool
)

func main() {
	flag.StringVar(&stationID, "station-id", "", "ID of the monitoring station")
	flag.StringVar(&stationID, "s", "", "ID of the monitoring station (shorthand)")
	flag.IntVar(&daysBack, "days-back", 1, "number of days to look back")
	flag.IntVar(&daysBack, "d", 1, "number of days to look back (shorthand)")
	flag.BoolVar(&updateStationIDs, "update-station-ids", false, "update the station IDs file before processing")
	flag.BoolVar(&updateStationIDs, "u", false, "update the station IDs file before processing (shorthand)")
	flag.BoolVar(&saveNotDisplay, "save-not-display", false, "save the plot instead of displaying it")
	flag.BoolVar(&saveNotDisplay, "save", false, "save the plot instead of displaying it (shorthand)")
	flag.BoolVar(&saveCSV, "save-csv", false, "save the readings to CSV files")
	flag.BoolVar(&saveCSV, "csv", false, "save the readings to CSV files (shorthand)")
	flag.Parse()

	if stationID == "" {
		fmt.Fprintln(os.Stderr, "a station ID is required (-s/--station-id)")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := floodapi.NewClient(httpClient, cfg.APIRootURL, cfg.MaxRetries)
	reg := registry.New(cfg.StationIDsFile)
	service := readings.NewService(client, cfg.ItemLimit, cfg.LookbackDaysLimit())

	// Reject out-of-range windows before touching the network.
	if err := service.ValidateDaysBack(daysBack); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if updateStationIDs {
		n, err := reg.Refresh(ctx, client)
		if err != nil {
			log.Fatalf("failed to update station IDs: %v", err)
		}
		log.Printf("INFO: wrote %d station IDs to %s", n, reg.Path())
	}

	known, err := reg.Contains(stationID)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if !known {
		log.Printf("WARN: station %s is not in %s; it may be invalid or the registry may be stale", stationID, reg.Path())
	}

	series, err := service.Collect(ctx, stationID, daysBack)
	if err != nil {
		if errors.Is(err, floodapi.ErrNoReadings) {
			log.Printf("WARN: station %s returned no readings in the last %d day(s); nothing to plot", stationID, daysBack)
			return
		}
		log.Fatalf("failed to fetch readings: %v", err)
	}

	stamp := time.Now().Format("2006-01-02T15:04")

	if saveCSV {
		dir := filepath.Join(cfg.DataDir, "readings")
		paths, err := readings.ExportCSV(series, dir, stationID, stamp)
		if err != nil {
			log.Fatalf("failed to save CSV files: %v", err)
		}
		log.Printf("INFO: wrote %d CSV file(s) to %s", len(paths), dir)
	}

	if saveNotDisplay {
		path := filepath.Join(cfg.PlotsDir, fmt.Sprintf("station_%s_%s.png", stationID, stamp))
		if err := chart.Save(series, path); err != nil {
			log.Fatalf("failed to save plot: %v", err)
		}
		log.Printf("INFO: plot saved to %s", path)
		return
	}

	if err := chart.Show(series); err != nil {
		log.Fatalf("failed to display plot: %v", err)
	}
}
