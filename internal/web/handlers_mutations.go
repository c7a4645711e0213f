package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/JonMunkholm/ammo/internal/web/templates"
)

// handleAddForm renders an empty manual entry form.
func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.AddForm(nil, nil, nil))
}

// handleAdd inserts one manually entered item. Invalid input re-renders
// the form with the submitted values and a message under each bad field.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	fields := formFields(r)

	rec, err := s.service.AddFromForm(r.Context(), fields)
	if err != nil {
		var verrs core.ValidationErrors
		if errors.As(err, &verrs) {
			render(w, r, http.StatusUnprocessableEntity, templates.AddForm(fields, verrs.ByField(), errorFlash(err)))
			return
		}
		s.respondError(w, r, err)
		return
	}

	flash := templates.Success("Added " + describe(rec) + ".")
	render(w, r, http.StatusCreated, templates.AddForm(nil, nil, flash))
}

// handleReset discards the whole inventory. The form must carry
// confirm=yes; anything else is refused without touching the store.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondErrorStatus(w, r, err, http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("confirm") != "yes" {
		count, err := s.service.Count(r.Context())
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		render(w, r, http.StatusBadRequest, templates.Home(count, templates.Info("Reset cancelled. Tick the confirmation box to delete every item.")))
		return
	}

	if err := s.service.Reset(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, templates.Home(0, templates.Success("Inventory reset.")))
}

// describe names a record for flash messages, e.g. "Federal 12 Buckshot".
func describe(rec core.Record) string {
	name := ""
	for _, part := range []string{rec.Brand, rec.GaugeOrAmmoSize, rec.Type} {
		if part == "" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += part
	}
	if name == "" {
		return "item"
	}
	return name
}
