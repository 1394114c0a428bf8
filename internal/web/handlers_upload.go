package web

import (
	"errors"
	"mime"
	"net/http"

	"github.com/JonMunkholm/ordersync/internal/core"
	"github.com/JonMunkholm/ordersync/internal/logging"
)

// multipartOverhead leaves room for form boundaries and fields on top of the
// file size limit.
const multipartOverhead = 1 << 20

// handleImport accepts either a multipart CSV upload (field "file", optional
// "source") or a JSON body {"source": ..., "rows": [...]}.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r.Context())
	logger := logging.WithTenant(r.Context(), tenantID)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		req, err := decodeRows(r.Body)
		if err != nil {
			respondError(w, r, err)
			return
		}
		report, err := s.service.ImportRows(r.Context(), tenantID, req.Source, req.Rows)
		if err != nil {
			respondError(w, r, err)
			return
		}
		logger.Info("rows imported", "source", report.Run.Source, "rows", report.Run.TotalRows)
		writeJSON(w, http.StatusOK, report)
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, core.ErrFileTooLarge)
			return
		}
		respondError(w, r, core.ErrInvalidRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	source := r.FormValue("source")
	report, err := s.service.ImportCSV(r.Context(), tenantID, source, header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.Info("file imported",
		"file", header.Filename,
		"source", report.Run.Source,
		"created", report.Result.Created,
		"updated", report.Result.Updated,
		"failed", report.Result.Failed,
	)
	writeJSON(w, http.StatusOK, report)
}

// handleImportHistory lists the tenant's recent imports (?limit=, default 20).
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	runs, err := s.service.ImportHistory(r.Context(), tenantFrom(r.Context()), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}
