package web

// JSON API handlers. Errors go through respondError, which always answers
// /api/ routes with an ErrorResponse.

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/JonMunkholm/ammo/internal/web/templates"
)

// maxJSONBody bounds the body of a single-record API request.
const maxJSONBody = 64 << 10

// handleAPIRecords returns the whole inventory.
func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.FetchAll(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, r, http.StatusOK, recordsPayload{Records: records, Count: len(records)})
}

// searchPayload is the JSON body for a type search.
type searchPayload struct {
	Term    string        `json:"term"`
	Records []core.Record `json:"records"`
	Count   int           `json:"count"`
	Message string        `json:"message,omitempty"`
}

// handleAPISearch filters the inventory by the "type" query parameter.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("type")
	results, err := s.service.SearchByType(r.Context(), term)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := searchPayload{Term: term, Records: results, Count: len(results)}
	if len(results) == 0 {
		resp.Message = templates.NoResultsMessage
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleAPIAdd inserts one record from a JSON object keyed by field name
// or label. Quantities may be sent as numbers or strings.
func (s *Server) handleAPIAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		s.respondErrorStatus(w, r, fmt.Errorf("decode record: %w", err), http.StatusBadRequest)
		return
	}

	rec, err := s.service.AddFromForm(r.Context(), jsonFields(body))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]core.Record{"record": rec})
}

// jsonFields flattens decoded JSON values to the strings manual entry
// validates. Nulls are treated as absent.
func jsonFields(body map[string]any) map[string]string {
	fields := make(map[string]string, len(body))
	for key, value := range body {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		default:
			fields[key] = fmt.Sprint(v)
		}
	}
	return fields
}

// handleAPILoad bulk loads CSV sent either as a multipart "file" part or
// as the raw request body.
func (s *Server) handleAPILoad(w http.ResponseWriter, r *http.Request) {
	body, name, err := s.uploadBody(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer body.Close()

	result, err := s.service.BulkLoadReader(r.Context(), name, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleAPIReset discards the whole inventory.
func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "reset"})
}
