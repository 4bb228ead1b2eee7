package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/localwise/directory/internal/directory"
	"github.com/localwise/directory/internal/logging"
	"github.com/localwise/directory/internal/web/templates"
)

// filterForRequest builds a filter engine for one request's query
// parameters. Each request gets its own engine so concurrent browsers
// cannot clobber each other's category or search state.
func (s *Server) filterForRequest(r *http.Request) *directory.FilterEngine {
	engine := directory.NewFilterEngine()
	engine.SetProviders(s.store.Providers(r.Context(), false))

	if category := r.URL.Query().Get("category"); category != "" {
		engine.SetCategory(category)
	}
	engine.SetSearchTerm(r.URL.Query().Get("q"))

	return engine
}

// handleIndex renders the browse page with the current filters applied.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	engine := s.filterForRequest(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Page(engine.Categories(), engine.Visible(), engine.Category(), engine.SearchTerm())
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render browse page", "error", err)
	}
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// providersResponse is the JSON shape of a filtered provider listing.
type providersResponse struct {
	Providers directory.ProviderList `json:"providers"`
	Total     int                    `json:"total"`
	Category  string                 `json:"category"`
	Query     string                 `json:"query"`
}

// handleListProviders returns the filtered provider list as JSON.
//
// Query parameters: category (sentinel "all" or absent disables category
// filtering) and q (case-insensitive substring search).
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	engine := s.filterForRequest(r)
	visible := engine.Visible()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(providersResponse{
		Providers: visible,
		Total:     len(visible),
		Category:  engine.Category(),
		Query:     engine.SearchTerm(),
	})
}

// handleListCategories returns the distinct categories of the current
// dataset, in dataset order, for the category dropdown.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	engine := directory.NewFilterEngine()
	engine.SetProviders(s.store.Providers(r.Context(), false))

	categories := engine.Categories()
	if categories == nil {
		categories = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"categories": categories})
}

// handleExport streams the filtered provider list as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	engine := s.filterForRequest(r)
	visible := engine.Visible()

	filename := directory.ExportFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if err := directory.WriteCSV(w, visible); err != nil {
		// Headers are already written; log and stop
		logging.FromContext(r.Context()).Error("csv export failed", "error", err)
	}
}

// handleRefresh forces an authoritative fetch from the origin. The store
// still degrades through its fallback chain, so the response is always a
// list; callers judge freshness by count and timing, not by errors.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	logger.Info("forced refresh requested")

	start := time.Now()
	records := s.store.Refresh(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"providers":   len(records),
		"duration_ms": time.Since(start).Milliseconds(),
	})
}
