package main

import (
	"html/template"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mliatlas/internal/mli"
)

// WebHandler handles HTMX HTML requests.
type WebHandler struct {
	Dataset    *mli.Dataset
	Divergence *Divergence
	Analyst    *AnalystService
	templates  *template.Template
}

// NewWebHandler creates a new WebHandler with parsed templates.
func NewWebHandler(ds *mli.Dataset, div *Divergence, analyst *AnalystService) *WebHandler {
	tmpl := template.Must(template.ParseGlob("templates/*.html"))
	template.Must(tmpl.ParseGlob("templates/partials/*.html"))
	return &WebHandler{
		Dataset:    ds,
		Divergence: div,
		Analyst:    analyst,
		templates:  tmpl,
	}
}

// tableState carries the table's sort/filter selections through form
// round-trips so header clicks can toggle correctly.
type tableState struct {
	Year    int
	SortKey mli.SortKey
	Dir     mli.Direction
	Query   string
}

func (h *WebHandler) parseTableState(r *http.Request) tableState {
	state := tableState{
		Year:    h.Dataset.LatestYear(),
		SortKey: mli.SortByMLI,
		Dir:     mli.Descending,
	}

	if raw := r.FormValue("year"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			state.Year = h.Dataset.ClampYear(year)
		}
	}
	if raw := r.FormValue("sort"); raw != "" {
		if key, err := mli.ParseSortKey(raw); err == nil {
			state.SortKey = key
		}
	}
	if r.FormValue("dir") == "asc" {
		state.Dir = mli.Ascending
	}
	state.Query = r.FormValue("q")

	// A header click arrives as the clicked column; toggle against the
	// current selection.
	if raw := r.FormValue("clicked"); raw != "" {
		if clicked, err := mli.ParseSortKey(raw); err == nil {
			state.SortKey, state.Dir = mli.ToggleSort(state.SortKey, state.Dir, clicked)
		}
	}

	return state
}

// buildTableData assembles the template payload for the rankings table.
func (h *WebHandler) buildTableData(state tableState) map[string]interface{} {
	rows := mli.BuildRows(h.Dataset, state.Year)
	rows = mli.SortRows(rows, state.SortKey, state.Dir)
	rows = mli.FilterRows(rows, state.Query)

	dir := "desc"
	if state.Dir == mli.Ascending {
		dir = "asc"
	}

	national, hasNational := h.Dataset.National[state.Year]

	return map[string]interface{}{
		"Rows":        rows,
		"Count":       len(rows),
		"Year":        state.Year,
		"Years":       h.Dataset.Years,
		"Sort":        string(state.SortKey),
		"Dir":         dir,
		"Query":       state.Query,
		"National":    national,
		"HasNational": hasNational,
	}
}

// Dashboard renders the main dashboard page.
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	state := h.parseTableState(r)
	data := h.buildTableData(state)
	data["Title"] = "Market Livability Index"

	if err := h.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// TablePartial re-renders the rankings table for year, sort, and filter
// changes.
func (h *WebHandler) TablePartial(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	state := h.parseTableState(r)
	data := h.buildTableData(state)

	if err := h.templates.ExecuteTemplate(w, "table.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// StateDetail renders one state's detail page.
func (h *WebHandler) StateDetail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	state, ok := h.Dataset.States[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	year := h.Dataset.LatestYear()
	if raw := r.URL.Query().Get("year"); raw != "" {
		if y, err := strconv.Atoi(raw); err == nil {
			year = h.Dataset.ClampYear(y)
		}
	}

	rank, _ := mli.RankOf(h.Dataset, year, mli.MetricMLI, name)
	change, _ := mli.Delta(h.Dataset, name, mli.MetricMLI, year-1, year)
	change5, _ := mli.Delta(h.Dataset, name, mli.MetricMLI, year-5, year)

	type seriesPoint struct {
		Year    int
		Metrics mli.YearMetrics
	}
	var series []seriesPoint
	for _, y := range h.Dataset.Years {
		if ym, ok := state.Timeseries[y]; ok {
			series = append(series, seriesPoint{Year: y, Metrics: ym})
		}
	}

	var bucket mli.Bucket
	var current mli.YearMetrics
	if ym, ok := state.Timeseries[year]; ok {
		current = ym
		bucket = mli.Classify(mli.MetricMLI, ym.MLI, nil)
	}

	data := map[string]interface{}{
		"Title":      state.Name,
		"State":      state,
		"Year":       year,
		"Years":      h.Dataset.Years,
		"Current":    current,
		"Series":     series,
		"Rank":       rank,
		"StateCount": len(h.Dataset.States),
		"Bucket":     bucket.String(),
		"BucketText": bucket.Label(),
		"Change":     change,
		"Change5yr":  change5,
	}

	if err := h.templates.ExecuteTemplate(w, "state.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// InsightsPage renders the divergence analysis page.
func (h *WebHandler) InsightsPage(w http.ResponseWriter, r *http.Request) {
	if h.Divergence == nil {
		http.Error(w, "Divergence analysis not loaded", http.StatusServiceUnavailable)
		return
	}

	gainers, decliners := h.Divergence.TopMovers(5)

	data := map[string]interface{}{
		"Title":      "Market Divergence",
		"Divergence": h.Divergence,
		"Gainers":    gainers,
		"Decliners":  decliners,
		"HasAnalyst": h.Analyst != nil,
	}

	if err := h.templates.ExecuteTemplate(w, "insights.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// BriefingPartial generates the AI briefing and returns it as a partial.
func (h *WebHandler) BriefingPartial(w http.ResponseWriter, r *http.Request) {
	if h.Analyst == nil {
		http.Error(w, "AI briefing not available: ANTHROPIC_API_KEY not set", http.StatusServiceUnavailable)
		return
	}
	if h.Divergence == nil {
		http.Error(w, "Divergence analysis not loaded", http.StatusServiceUnavailable)
		return
	}

	briefing, err := h.Analyst.GenerateBriefing(r.Context(), h.Divergence)
	if err != nil {
		log.Printf("Briefing error: %v", err)
		http.Error(w, "Briefing failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Briefing": briefing,
	}

	if err := h.templates.ExecuteTemplate(w, "briefing.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
