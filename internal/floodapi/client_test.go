package floodapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(upstream *httptest.Server) *Client {
	return NewClient(upstream.Client(), upstream.URL, 0)
}

func TestFetchStationIDs(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/id/stations" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"@id":"http://environment.data.gov.uk/flood-monitoring/id/stations/1491TH"},
			{"@id":"http://environment.data.gov.uk/flood-monitoring/id/stations/E2043"}
		]}`))
	}))
	defer upstream.Close()

	ids, err := newTestClient(upstream).FetchStationIDs(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"1491TH", "E2043"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d IDs, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestFetchReadingsQueryParameters(t *testing.T) {
	var gotQuery map[string][]string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/id/stations/1491TH/readings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"@id":"x","dateTime":"2024-03-01T10:00:00Z","measure":"http://x/measures/1491TH-level-stage-i-15_min-mASD","value":0.5}
		]}`))
	}))
	defer upstream.Close()

	since := time.Date(2024, 3, 1, 8, 15, 42, 0, time.UTC)
	items, err := newTestClient(upstream).FetchReadings(context.Background(), "1491TH", since, 1400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Value != 0.5 {
		t.Fatalf("expected value 0.5, got %f", items[0].Value)
	}

	// Seconds are zeroed in the since timestamp, matching what the API expects.
	if got := gotQuery["since"]; len(got) != 1 || got[0] != "2024-03-01T08:15:00Z" {
		t.Fatalf("unexpected since parameter: %v", got)
	}
	if got := gotQuery["_limit"]; len(got) != 1 || got[0] != "1400" {
		t.Fatalf("unexpected _limit parameter: %v", got)
	}
	if _, ok := gotQuery["_sorted"]; !ok {
		t.Fatal("expected _sorted parameter")
	}
}

func TestFetchReadingsEmptyItems(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).FetchReadings(context.Background(), "1491TH", time.Now(), 1400)
	if !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestFetchReadingsAPIError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such station", http.StatusNotFound)
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream).FetchReadings(context.Background(), "BOGUS", time.Now(), 1400)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != "no such station" {
		t.Fatalf("unexpected body %q", apiErr.Body)
	}
}

// TestRetryOnServerError verifies that 5xx responses are retried and a
// subsequent success is returned.
func TestRetryOnServerError(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"dateTime":"2024-03-01T10:00:00Z","measure":"http://x/measures/m-u","value":1}]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.Client(), upstream.URL, 2)

	items, err := client.FetchReadings(context.Background(), "1491TH", time.Now(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

// TestNoRetryOnClientError verifies that 4xx responses fail immediately.
func TestNoRetryOnClientError(t *testing.T) {
	var calls int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer upstream.Close()

	client := NewClient(upstream.Client(), upstream.URL, 3)

	_, err := client.FetchReadings(context.Background(), "1491TH", time.Now(), 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}
