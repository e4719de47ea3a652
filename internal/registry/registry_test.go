package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeSource struct {
	ids []string
	err error
}

func (f *fakeSource) FetchStationIDs(ctx context.Context) ([]string, error) {
	return f.ids, f.err
}

// TestRefreshThenLoad verifies that a refresh followed by a load yields a
// set containing every upstream identifier, deduplicated.
func TestRefreshThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_ids.txt")
	reg := New(path)

	source := &fakeSource{ids: []string{"1491TH", "E2043", "1491TH", "52119"}}

	n, err := reg.Refresh(context.Background(), source)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 IDs written, got %d", n)
	}

	ids, err := reg.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 unique IDs, got %d", len(ids))
	}
	for _, want := range []string{"1491TH", "E2043", "52119"} {
		if _, ok := ids[want]; !ok {
			t.Fatalf("expected ID %s in registry", want)
		}
	}
}

// TestRefreshOverwritesWholesale verifies that a second refresh replaces
// the prior contents rather than merging.
func TestRefreshOverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_ids.txt")
	reg := New(path)

	if _, err := reg.Refresh(context.Background(), &fakeSource{ids: []string{"OLD1", "OLD2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reg.Refresh(context.Background(), &fakeSource{ids: []string{"NEW1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := reg.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 ID after overwrite, got %d", len(ids))
	}
	if _, ok := ids["NEW1"]; !ok {
		t.Fatal("expected NEW1 in registry")
	}
}

func TestRefreshSourceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_ids.txt")
	reg := New(path)

	wantErr := errors.New("upstream down")
	if _, err := reg.Refresh(context.Background(), &fakeSource{err: wantErr}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("registry file should not exist after failed refresh")
	}
}

// TestLoadMissingFile verifies the sentinel that tells the user to re-run
// with the refresh flag.
func TestLoadMissingFile(t *testing.T) {
	reg := New(filepath.Join(t.TempDir(), "missing.txt"))

	if _, err := reg.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_ids.txt")
	if err := os.WriteFile(path, []byte("1491TH\n\nE2043\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reg := New(path)

	known, err := reg.Contains("1491TH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !known {
		t.Fatal("expected 1491TH to be known")
	}

	known, err = reg.Contains("BOGUS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if known {
		t.Fatal("expected BOGUS to be unknown")
	}
}

func TestIDsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_ids.txt")
	if err := os.WriteFile(path, []byte("B2\nA1\nC3\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := New(path).IDs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"A1", "B2", "C3"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d IDs, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}
