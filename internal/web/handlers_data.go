package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/JonMunkholm/ammo/internal/web/templates"
)

// handleHome renders the landing page with the current item count.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.Count(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.Home(count, nil))
}

// handleInventory renders every record.
func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.FetchAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.Inventory(records, nil))
}

// handleExport streams the inventory as a CSV download.
// The body is buffered so a store failure still yields an error page.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.service.ExportTo(r.Context(), &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		requestLogger(r).Error("export write failed", "error", err)
		return
	}
	requestLogger(r).Info("inventory exported", "records", n)
}

// handleSearch filters the inventory by type. The form is shown empty
// until a "type" parameter is submitted.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("type") {
		render(w, r, http.StatusOK, templates.Search("", nil, false))
		return
	}

	term := query.Get("type")
	results, err := s.service.SearchByType(r.Context(), term)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.Search(term, results, true))
}

// recordsPayload is the JSON body for record listings.
type recordsPayload struct {
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
}
