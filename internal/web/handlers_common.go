package web

// Shared request helpers used across handlers.

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/a-h/templ"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

// exportFileName names a CSV download, e.g. ammo_inventory_20240301_153000.csv.
func exportFileName(now time.Time) string {
	return "ammo_inventory_" + now.Format("20060102_150405") + ".csv"
}

// formFields collects the posted value of every data field by name.
// Fields the form did not send are left out so they count as missing.
func formFields(r *http.Request) map[string]string {
	fields := make(map[string]string, len(core.FieldSpecs))
	for _, spec := range core.FieldSpecs {
		if values, ok := r.PostForm[spec.Name]; ok && len(values) > 0 {
			fields[spec.Name] = values[0]
		}
	}
	return fields
}

// openUpload returns the "file" part of a multipart request.
// Requests over the size limit yield a FileError wrapping ErrFileTooLarge.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	if s.cfg.Ingest.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", &core.FileError{Path: "upload", Op: "read", Err: fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)}
		}
		return nil, "", &core.FileError{Path: "upload", Op: "read", Err: err}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", &core.FileError{Path: "upload", Op: "read", Err: fmt.Errorf("no file provided: %w", err)}
	}
	return file, header.Filename, nil
}

// uploadBody returns the CSV payload of an API load request: the "file"
// part of a multipart form, or the raw body otherwise.
func (s *Server) uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "multipart/form-data" {
		return s.openUpload(w, r)
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	return r.Body, name, nil
}

// render writes an HTML component with the given status.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		requestLogger(r).Error("render failed", "path", r.URL.Path, "error", err)
	}
}
