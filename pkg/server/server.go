package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/studioops/funnelio/pkg/config"
	"github.com/studioops/funnelio/pkg/csv"
	"github.com/studioops/funnelio/pkg/funnel"
	"github.com/studioops/funnelio/pkg/models"
	"github.com/studioops/funnelio/pkg/parser"
	"github.com/studioops/funnelio/pkg/service"
)

// Store is the persistence surface the server needs; nil disables the
// persist option and the stored-funnel endpoint.
type Store interface {
	service.Store
	FunnelMonths(ctx context.Context, userID string) ([]models.FunnelBucket, error)
}

// Server handles HTTP requests for CRM report processing.
type Server struct {
	config *config.Config
	logger *log.Logger
	mux    *http.ServeMux
	parser *parser.Parser
	store  Store
	files  sync.Map
}

// New creates a new HTTP server.
func New(cfg *config.Config, logger *log.Logger, store Store) *Server {
	return &Server{
		config: cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		parser: parser.New(logger),
		store:  store,
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/import", s.withLogging(s.handleImport))
	s.mux.HandleFunc("/api/funnel", s.withLogging(s.handleFunnel))
	s.mux.HandleFunc("/api/files/", s.withLogging(s.handleFiles))
	s.mux.HandleFunc("/healthz", s.withLogging(s.handleHealth))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleImport accepts a Leads export, a Booked-Client export, or both in
// one multipart request, runs the importers against the tenant's catalog
// and returns the merged result. With persist=true the result is also
// written through the store.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to parse form", err)
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		userID = s.config.UserID
	}
	persist := r.FormValue("persist") == "true"
	if persist && s.store == nil {
		s.respondError(w, r, http.StatusBadRequest, "persistence not configured", nil)
		return
	}

	catalog := models.Catalog{}
	if s.store != nil {
		var err error
		catalog, err = s.store.Catalog(r.Context(), userID)
		if err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "failed to load catalog", err)
			return
		}
	}

	var (
		bookings      []models.Booking
		leads, booked []models.FunnelBucket
		warnings      []string
		importErrors  []string
	)

	for field, reportType := range map[string]parser.ReportType{
		"leads":  parser.LeadsReport,
		"booked": parser.BookedReport,
	} {
		data, filename, ok, err := formFile(r, field)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to read %s file", field), err)
			return
		}
		if !ok {
			continue
		}

		result, err := s.parser.Import(data, reportType, filename, catalog)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "failed to process file", err)
			return
		}

		catalog = models.Catalog{ServiceTypes: result.ServiceTypes, LeadSources: result.LeadSources}
		bookings = append(bookings, result.Bookings...)
		warnings = append(warnings, prefixMessages(filename, result.Warnings)...)
		importErrors = append(importErrors, prefixMessages(filename, result.Errors)...)
		if reportType == parser.LeadsReport {
			leads = result.FunnelData
		} else {
			booked = result.FunnelData
		}
	}

	if leads == nil && booked == nil {
		s.respondError(w, r, http.StatusBadRequest, "no leads or booked file provided", nil)
		return
	}

	merged := funnel.Merge(leads, booked)
	aggregate := &models.ImportResult{
		Bookings:     bookings,
		FunnelData:   merged,
		ServiceTypes: catalog.ServiceTypes,
		LeadSources:  catalog.LeadSources,
		Errors:       importErrors,
		Warnings:     warnings,
	}

	if persist {
		if err := s.store.SaveResult(r.Context(), userID, aggregate, merged); err != nil {
			s.respondError(w, r, http.StatusInternalServerError, "failed to persist import", err)
			return
		}
	}

	bookingsFile := userID + "-bookings.csv"
	funnelFile := userID + "-funnel.csv"
	s.files.Store(bookingsFile, csv.Bookings(aggregate, nil))
	s.files.Store(funnelFile, csv.Funnel(merged))

	s.logger.Info("import complete",
		"user", userID,
		"bookings", len(bookings),
		"months", len(merged),
		"warnings", len(warnings),
		"errors", len(importErrors),
		"persisted", persist)

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"result":    aggregate,
		"files":     []string{bookingsFile, funnelFile},
		"persisted": persist,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleFunnel serves the tenant's stored monthly funnel series.
func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	if s.store == nil {
		s.respondError(w, r, http.StatusBadRequest, "persistence not configured", nil)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = s.config.UserID
	}

	buckets, err := s.store.FunnelMonths(r.Context(), userID)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to load funnel", err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"funnel": buckets,
	}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// handleFiles serves a CSV generated by a previous import request.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filename == "" {
		s.respondError(w, r, http.StatusBadRequest, "filename required", nil)
		return
	}

	value, ok := s.files.Load(filename)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "file not found", nil)
		return
	}
	data, ok := value.([]byte)
	if !ok {
		s.respondError(w, r, http.StatusInternalServerError, "internal type assertion error", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// --- helpers ---

// prefixMessages qualifies row-level messages with the uploaded filename so
// a "row 1" from the leads file cannot be read as the booked file's row 1.
func prefixMessages(filename string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, fmt.Sprintf("%s: %s", filename, m))
	}
	return out
}

func formFile(r *http.Request, field string) (data []byte, filename string, ok bool, err error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", false, err
	}
	return data, header.Filename, true, nil
}

// writeJSON encodes v as JSON with the given status and writes headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
