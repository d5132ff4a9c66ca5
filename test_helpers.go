package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"mliatlas/internal/mli"
)

// WriteTestDataFiles encodes the mock dataset and divergence analysis
// into dataDir in the on-disk format (string-keyed year maps), so
// loader tests exercise the real decode path.
func WriteTestDataFiles(t *testing.T, dataDir string) {
	t.Helper()

	ds := MockDataset()

	states := make(map[string]rawStateRecord, len(ds.States))
	for name, rec := range ds.States {
		ts := make(map[string]mli.YearMetrics, len(rec.Timeseries))
		for year, ym := range rec.Timeseries {
			ts[strconv.Itoa(year)] = ym
		}
		states[name] = rawStateRecord{Name: rec.Name, Timeseries: ts, Latest: rec.Latest}
	}

	national := make(map[string]mli.NationalAverages, len(ds.National))
	for year, nat := range ds.National {
		national[strconv.Itoa(year)] = nat
	}

	doc := rawDataset{
		Metadata: ds.Metadata,
		Years:    ds.Years,
		States:   states,
		National: national,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Failed to marshal dataset fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, mliDataFile), data, 0644); err != nil {
		t.Fatalf("Failed to write dataset fixture: %v", err)
	}

	divData, err := json.Marshal(MockDivergence())
	if err != nil {
		t.Fatalf("Failed to marshal divergence fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, divergenceFile), divData, 0644); err != nil {
		t.Fatalf("Failed to write divergence fixture: %v", err)
	}
}

// SetupTestStore creates a store over the mock data in a temp
// directory. The cleanup function closes the store and removes the
// directory.
func SetupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "mliatlas-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	store, err := NewStore(tmpDir, MockDataset(), MockDivergence())
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}
