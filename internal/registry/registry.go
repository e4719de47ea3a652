package registry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load when the station IDs file does not exist.
var ErrNotFound = errors.New("station IDs file not found; run with --update-station-ids to create it")

// StationSource lists all station identifiers known upstream.
type StationSource interface {
	FetchStationIDs(ctx context.Context) ([]string, error)
}

// Registry is the locally cached list of known station identifiers,
// persisted one per line in a plain text file.
type Registry struct {
	path string
}

func New(path string) *Registry {
	return &Registry{path: path}
}

func (r *Registry) Path() string { return r.path }

// Refresh fetches the current station list and overwrites the file
// wholesale. There is no incremental merge; the upstream list is the
// single source of truth. Returns the number of identifiers written.
func (r *Registry) Refresh(ctx context.Context, source StationSource) (int, error) {
	ids, err := source.FetchStationIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching station IDs: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	var buf bytes.Buffer
	for _, id := range ids {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(r.path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing registry file: %w", err)
	}

	return len(ids), nil
}

// Load reads the station IDs file into a set, dropping blank lines and
// duplicates.
func (r *Registry) Load() (map[string]struct{}, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w (expected at %s)", ErrNotFound, r.path)
		}
		return nil, err
	}
	defer f.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if id := strings.TrimSpace(scanner.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// Contains reports whether the station is in the cached list. A miss is
// advisory only: the registry may be stale, so callers still attempt the
// fetch.
func (r *Registry) Contains(stationID string) (bool, error) {
	ids, err := r.Load()
	if err != nil {
		return false, err
	}
	_, ok := ids[stationID]
	return ok, nil
}

// IDs returns the cached station identifiers sorted ascending.
func (r *Registry) IDs() ([]string, error) {
	set, err := r.Load()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}
