package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/ammo/internal/web/templates"
)

// handleLoadForm renders the CSV upload form.
func (s *Server) handleLoadForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.LoadForm(s.service.Coercion(), nil, nil))
}

// handleLoad bulk loads an uploaded CSV file. The whole file is parsed
// before anything is inserted, so a failed load leaves the inventory as
// it was and the form is shown again with the mapped error.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	policy := s.service.Coercion()

	file, name, err := s.openUpload(w, r)
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.service.BulkLoadReader(r.Context(), name, file)
	if err != nil {
		s.loadFailed(w, r, err)
		return
	}

	msg := "Loaded " + strconv.Itoa(result.Inserted) + " items from " + result.FileName + "."
	if result.Defaulted > 0 {
		msg += " " + strconv.Itoa(result.Defaulted) + " quantities were blank or invalid and stored as 0."
	}
	render(w, r, http.StatusOK, templates.LoadForm(policy, result, templates.Success(msg)))
}

// loadFailed logs err and shows the load form with its user message.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	requestLogger(r).Warn("bulk load rejected", "status", status, "error", err)
	render(w, r, status, templates.LoadForm(s.service.Coercion(), nil, errorFlash(err)))
}
