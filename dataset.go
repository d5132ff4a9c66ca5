package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"mliatlas/internal/mli"
)

const (
	mliDataFile    = "mli_data.json"
	divergenceFile = "market_divergence_corrected.json"
)

// rawStateRecord mirrors the on-disk encoding, where timeseries and
// national keys are JSON strings rather than ints.
type rawStateRecord struct {
	Name       string                         `json:"name"`
	Timeseries map[string]mli.YearMetrics     `json:"timeseries"`
	Latest     mli.LatestSnapshot             `json:"latest"`
}

type rawDataset struct {
	Metadata map[string]any                  `json:"metadata"`
	Years    []int                           `json:"years"`
	States   map[string]rawStateRecord       `json:"states"`
	National map[string]mli.NationalAverages `json:"national"`
}

// LoadDataset reads and decodes mli_data.json from dataDir and converts
// the string-keyed year maps into int-keyed ones. A load failure is
// terminal for the session: callers exit rather than retry.
func LoadDataset(dataDir string) (*mli.Dataset, error) {
	path := filepath.Join(dataDir, mliDataFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Error("Failed to read dataset file", "error", err, "path", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc rawDataset
	if err := json.Unmarshal(raw, &doc); err != nil {
		if logger != nil {
			logger.Error("Failed to parse dataset file", "error", err, "path", path)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ds := &mli.Dataset{
		Metadata: doc.Metadata,
		Years:    doc.Years,
		States:   make(map[string]mli.StateRecord, len(doc.States)),
		National: make(map[int]mli.NationalAverages, len(doc.National)),
	}
	sort.Ints(ds.Years)

	for name, rec := range doc.States {
		ts := make(map[int]mli.YearMetrics, len(rec.Timeseries))
		for yearStr, ym := range rec.Timeseries {
			year, err := strconv.Atoi(yearStr)
			if err != nil {
				return nil, fmt.Errorf("state %s: bad timeseries year %q: %w", name, yearStr, err)
			}
			ts[year] = ym
		}
		if rec.Name == "" {
			rec.Name = name
		}
		ds.States[name] = mli.StateRecord{Name: rec.Name, Timeseries: ts, Latest: rec.Latest}
	}

	for yearStr, nat := range doc.National {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, fmt.Errorf("bad national year %q: %w", yearStr, err)
		}
		ds.National[year] = nat
	}

	if err := ds.Validate(); err != nil {
		if logger != nil {
			logger.Warn("Dataset validation reported gaps", "error", err, "path", path)
		}
		// Gaps degrade per-row downstream; only structural problems abort.
		if len(ds.Years) == 0 || len(ds.States) == 0 {
			return nil, fmt.Errorf("invalid dataset %s: %w", path, err)
		}
	}

	if logger != nil {
		logger.Info("Dataset loaded", "path", path, "states", len(ds.States), "years", len(ds.Years))
	}

	return ds, nil
}
