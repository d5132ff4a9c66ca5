package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mliatlas/internal/mli"
)

// ServerDeps holds everything the web dashboard serves from.
type ServerDeps struct {
	Port       int
	Dataset    *mli.Dataset
	Divergence *Divergence
	Store      *Store
	Analyst    *AnalystService
	DataDir    string
}

// StartServer initializes and starts the HTTP server.
func StartServer(deps ServerDeps) error {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Web handlers (HTMX HTML responses)
	webHandler := NewWebHandler(deps.Dataset, deps.Divergence, deps.Analyst)
	r.Get("/", webHandler.Dashboard)
	r.Post("/table", webHandler.TablePartial)
	r.Get("/states/{name}", webHandler.StateDetail)
	r.Get("/insights", webHandler.InsightsPage)
	r.Post("/insights/briefing", webHandler.BriefingPartial)

	// API handlers (JSON responses)
	apiHandler := &APIHandler{
		Dataset:    deps.Dataset,
		Divergence: deps.Divergence,
		Store:      deps.Store,
		Analyst:    deps.Analyst,
		DataDir:    deps.DataDir,
	}
	r.Route("/api", func(r chi.Router) {
		r.Get("/rankings", apiHandler.Rankings)
		r.Get("/classify", apiHandler.Classify)
		r.Get("/states/{name}", apiHandler.GetState)
		r.Get("/national", apiHandler.National)
		r.Get("/divergence", apiHandler.DivergenceAnalysis)
		r.Get("/dataset", apiHandler.DownloadDataset)
		r.Post("/ask", apiHandler.Ask)
	})

	addr := fmt.Sprintf(":%d", deps.Port)
	log.Printf("Starting server on http://localhost%s", addr)
	return http.ListenAndServe(addr, r)
}
