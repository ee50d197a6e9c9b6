package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kaiwa/internal/archive"
	"github.com/hyperjump/kaiwa/internal/export"
	"github.com/hyperjump/kaiwa/internal/models"
	"github.com/hyperjump/kaiwa/internal/transcript"
)

// maxUploadBytes caps export archive uploads at 256 MiB.
const maxUploadBytes = 256 << 20

// handleUploadExport accepts a multipart export zip under the "file" field,
// runs the pipeline, writes the JSON and xlsx documents under the output
// directory, and records the run.
func (s *Server) handleUploadExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "kaiwa-upload-*.zip")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := tmp.Close(); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Debug("export upload", zap.String("archive", header.Filename))
	doc, rows, err := s.pipeline.Parse(r.Context(), tmpPath)
	if err != nil {
		s.respondParseError(w, err)
		return
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.outputDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonPath := filepath.Join(runDir, export.JSONFileName)
	excelPath := filepath.Join(runDir, export.ExcelFileName)
	if err := export.WriteJSON(jsonPath, doc); err != nil {
		s.logger.Error("json export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := export.WriteExcel(excelPath, rows); err != nil {
		s.logger.Error("excel export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	attachmentCount := 0
	for _, msg := range doc.Messages {
		attachmentCount += len(msg.Attachments)
	}
	run := &models.Run{
		ID:              runID,
		ArchiveName:     header.Filename,
		MessageCount:    len(doc.Messages),
		AttachmentCount: attachmentCount,
		JSONPath:        jsonPath,
		ExcelPath:       excelPath,
	}
	if err := s.storage.CreateRun(r.Context(), run); err != nil {
		s.logger.Error("run record failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, run)
}

// respondParseError maps pipeline failures onto status codes: unreadable
// archives are client errors, missing transcripts and malformed timestamps
// are unprocessable uploads surfaced with the offending context.
func (s *Server) respondParseError(w http.ResponseWriter, err error) {
	var mt *transcript.MalformedTimestampError
	switch {
	case errors.Is(err, archive.ErrArchiveUnreadable):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, archive.ErrMissingTranscript):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &mt):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("parse failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.storage.ListRuns(r.Context(), 50)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.storage.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDownloadJSON(w http.ResponseWriter, r *http.Request) {
	s.serveRunFile(w, r, func(run *models.Run) string { return run.JSONPath }, "application/json")
}

func (s *Server) handleDownloadExcel(w http.ResponseWriter, r *http.Request) {
	s.serveRunFile(w, r, func(run *models.Run) string { return run.ExcelPath },
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (s *Server) serveRunFile(w http.ResponseWriter, r *http.Request, pathOf func(*models.Run) string, contentType string) {
	id := chi.URLParam(r, "id")
	run, err := s.storage.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "run not found")
		return
	}
	path := pathOf(run)
	if path == "" {
		s.respondError(w, http.StatusNotFound, "document not available")
		return
	}
	if _, err := os.Stat(path); err != nil {
		s.respondError(w, http.StatusNotFound, "document missing on disk")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountRuns(r.Context())
	if err != nil {
		s.logger.Error("status: count runs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":       count,
		"output_dir": s.outputDir,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
