package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mliatlas/internal/mli"
)

// APIHandler handles JSON API requests.
type APIHandler struct {
	Dataset    *mli.Dataset
	Divergence *Divergence
	Store      *Store
	Analyst    *AnalystService
	DataDir    string
}

// parseYear reads the year query parameter, defaulting to the latest
// year and clamping out-of-range values into the series.
func (h *APIHandler) parseYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.Dataset.LatestYear(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return h.Dataset.ClampYear(year), nil
}

// Rankings returns the sorted, filtered table for one year.
func (h *APIHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	year, err := h.parseYear(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sortKey := mli.SortByMLI
	if raw := r.URL.Query().Get("sort"); raw != "" {
		sortKey, err = mli.ParseSortKey(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}
	dir := mli.Descending
	if r.URL.Query().Get("dir") == "asc" {
		dir = mli.Ascending
	}

	rows := mli.BuildRows(h.Dataset, year)
	rows = mli.SortRows(rows, sortKey, dir)
	rows = mli.FilterRows(rows, r.URL.Query().Get("q"))

	if raw := r.URL.Query().Get("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			rows = mli.TopN(rows, n)
		}
	} else if raw := r.URL.Query().Get("bottom"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			rows = mli.BottomN(rows, n)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"sort":  sortKey,
		"count": len(rows),
		"rows":  rows,
	})
}

// Classify returns each state's bucket for a metric and year, the
// payload behind the map's color fills.
func (h *APIHandler) Classify(w http.ResponseWriter, r *http.Request) {
	year, err := h.parseYear(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	metric := mli.MetricMLI
	if raw := r.URL.Query().Get("metric"); raw != "" {
		metric, err = mli.ParseMetric(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	yearValues := h.Dataset.ValuesForYear(year, metric)
	buckets := make(map[string]string, len(h.Dataset.States))
	values := make(map[string]float64, len(h.Dataset.States))
	for _, name := range h.Dataset.StateNames() {
		v, err := h.Dataset.Value(name, year, metric)
		if err != nil {
			// Missing year for one state degrades per-row.
			continue
		}
		buckets[name] = mli.Classify(metric, v, yearValues).String()
		values[name] = v
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":    year,
		"metric":  metric,
		"buckets": buckets,
		"values":  values,
	})
}

// GetState returns one state's full detail: latest snapshot, timeseries,
// rank, and deltas for the requested year.
func (h *APIHandler) GetState(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	state, ok := h.Dataset.States[name]
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error": "State not found",
		})
		return
	}

	year, err := h.parseYear(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rank, err := mli.RankOf(h.Dataset, year, mli.MetricMLI, name)
	if err != nil && !errors.Is(err, mli.ErrMissingYear) {
		log.Printf("Rank error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	change, _ := mli.Delta(h.Dataset, name, mli.MetricMLI, year-1, year)
	change5, _ := mli.Delta(h.Dataset, name, mli.MetricMLI, year-5, year)

	var bucket string
	if ym, ok := state.Timeseries[year]; ok {
		bucket = mli.Classify(mli.MetricMLI, ym.MLI, nil).String()
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":     state,
		"year":      year,
		"rank":      rank,
		"bucket":    bucket,
		"change":    change,
		"change5yr": change5,
	})
}

// National returns the national averages series.
func (h *APIHandler) National(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"years":    h.Dataset.Years,
		"national": h.Dataset.National,
	})
}

// DivergenceAnalysis returns the full pre-computed divergence document.
func (h *APIHandler) DivergenceAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.Divergence == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Divergence analysis not loaded",
		})
		return
	}
	respondJSON(w, http.StatusOK, h.Divergence)
}

// DownloadDataset streams the loaded dataset back as a formatted JSON
// attachment.
func (h *APIHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.DataDir, mliDataFile)
	f, err := os.Open(path)
	if err != nil {
		log.Printf("Dataset download error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Dataset file unavailable",
		})
		return
	}
	defer f.Close()

	var doc any
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		log.Printf("Dataset download decode error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Dataset file unreadable",
		})
		return
	}

	pretty, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to format dataset",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="mli_data.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pretty); err != nil {
		log.Printf("Dataset download write error: %v", err)
	}
}

// askRequest is the body of POST /api/ask.
type askRequest struct {
	Question string `json:"question"`
}

// Ask answers a natural-language question with the AI analyst.
func (h *APIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if h.Analyst == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "AI analyst not available: ANTHROPIC_API_KEY not set",
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Bad request"})
		return
	}

	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Question == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Body must be JSON with a non-empty question field",
		})
		return
	}

	answer, err := h.Analyst.AskDataQuestion(r.Context(), req.Question)
	if err != nil {
		log.Printf("Analyst error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Analysis failed: " + err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"question": req.Question,
		"answer":   answer,
	})
}

// respondJSON is a helper function to send JSON responses.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("JSON encoding error: %v", err)
	}
}
