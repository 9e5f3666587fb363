// Package api exposes the import pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/vidishraj/akkountant/accrual"
	"github.com/vidishraj/akkountant/extractor"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/extractor/email"
	"github.com/vidishraj/akkountant/extractor/geometry"
	"github.com/vidishraj/akkountant/ingest"
	"github.com/vidishraj/akkountant/portfolio"
)

const dateLayout = "2006-01-02"

// Config holds the API server configuration
type Config struct {
	Port string
}

// DefaultConfig returns the default API configuration
func DefaultConfig() Config {
	return Config{Port: ":8080"}
}

// Server represents the HTTP API server
type Server struct {
	config Config
	svc    *ingest.Service
	mux    *http.ServeMux
}

// New creates a new API server over svc
func New(cfg Config, svc *ingest.Service) *Server {
	s := &Server{
		config: cfg,
		svc:    svc,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes sets up the API endpoints
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /extract", s.handleExtract)
	s.mux.HandleFunc("POST /statements", s.handleStatement)
	s.mux.HandleFunc("POST /emails", s.handleEmails)
	s.mux.HandleFunc("POST /emails/statements", s.handleMailStatements)
	s.mux.HandleFunc("GET /accrual", s.handleAccrual)
	s.mux.HandleFunc("POST /deposits", s.handleInsertDeposit)
	s.mux.HandleFunc("DELETE /deposits", s.handleDeleteDeposits)
	s.mux.HandleFunc("POST /tradebook", s.handleTradeBook)
	s.mux.HandleFunc("POST /passwords", s.handlePassword)
}

// Handler returns the http.Handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server (blocking)
func (s *Server) Start() error {
	log.Infof("starting server on %s", s.config.Port)
	return http.ListenAndServe(s.config.Port, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract parses an uploaded statement without storing it.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := s.stageUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	results, err := extractor.ExtractPath(path, r.FormValue("bank"), r.FormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results[0])
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := s.stageUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	res, err := s.svc.ParseStatement(r.Context(), user, r.FormValue("bank"), path, r.FormValue("password"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	user, from, to, ok := mailParams(w, r)
	if !ok {
		return
	}
	res, err := s.svc.ReadEmailTransactions(r.Context(), user, r.FormValue("bank"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMailStatements(w http.ResponseWriter, r *http.Request) {
	user, from, to, ok := mailParams(w, r)
	if !ok {
		return
	}
	results, err := s.svc.ReadStatementsFromMail(r.Context(), user, r.FormValue("bank"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleAccrual(w http.ResponseWriter, r *http.Request) {
	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	kind := common.SecurityType(r.FormValue("type"))
	summary, err := s.svc.AccrualSummary(r.Context(), user, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInsertDeposit(w http.ResponseWriter, r *http.Request) {
	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	date, err := time.ParseInLocation(dateLayout, r.FormValue("date"), time.Local)
	if err != nil {
		http.Error(w, "invalid date: "+err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		http.Error(w, "invalid amount: "+err.Error(), http.StatusBadRequest)
		return
	}
	kind := common.SecurityType(r.FormValue("type"))
	id, err := s.svc.InsertDeposit(r.Context(), user, kind, date, r.FormValue("description"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"buy_id": id})
}

// handleDeleteDeposits removes one deposit by buy_id, or every deposit of
// type when no buy_id is given.
func (s *Server) handleDeleteDeposits(w http.ResponseWriter, r *http.Request) {
	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	if id := r.FormValue("buy_id"); id != "" {
		if err := s.svc.DeleteDeposit(r.Context(), user, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": 1})
		return
	}
	kind, ok := required(w, r, "type")
	if !ok {
		return
	}
	n, err := s.svc.DeleteDeposits(r.Context(), user, common.SecurityType(kind))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleTradeBook(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := s.stageUpload(w, r)
	if !ok {
		return
	}
	defer cleanup()

	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	res, err := s.svc.ImportTradeBook(r.Context(), user, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := required(w, r, "user")
	if !ok {
		return
	}
	bank, ok := required(w, r, "bank")
	if !ok {
		return
	}
	if _, err := extractor.Lookup(bank); err != nil {
		writeError(w, err)
		return
	}
	if err := s.svc.SetStatementPassword(r.Context(), user, bank, r.FormValue("password")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stageUpload copies the multipart "file" field to a temporary directory,
// keeping its file name.
func (s *Server) stageUpload(w http.ResponseWriter, r *http.Request) (string, func(), bool) {
	log.WithField("remote", r.RemoteAddr).Debugf("received %s", r.URL.Path)

	// Parse multipart form with 32MB max memory
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Could not parse multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Could not get uploaded file: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	if err := os.MkdirAll(s.svc.TempDir, 0o755); err != nil {
		writeError(w, err)
		return "", nil, false
	}
	dir, err := os.MkdirTemp(s.svc.TempDir, "upload-")
	if err != nil {
		writeError(w, err)
		return "", nil, false
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(path)
	if err != nil {
		cleanup()
		writeError(w, err)
		return "", nil, false
	}
	_, err = io.Copy(out, file)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		writeError(w, fmt.Errorf("failed to store upload: %w", err))
		return "", nil, false
	}
	return path, cleanup, true
}

func required(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.FormValue(key)
	if v == "" {
		http.Error(w, "missing "+key, http.StatusBadRequest)
		return "", false
	}
	return v, true
}

// mailParams reads user and the from/to range. to defaults to today and
// from to a month before to.
func mailParams(w http.ResponseWriter, r *http.Request) (string, time.Time, time.Time, bool) {
	user, ok := required(w, r, "user")
	if !ok {
		return "", time.Time{}, time.Time{}, false
	}
	to := time.Now()
	if v := r.FormValue("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			http.Error(w, "invalid to date: "+err.Error(), http.StatusBadRequest)
			return "", time.Time{}, time.Time{}, false
		}
		to = t
	}
	from := to.AddDate(0, -1, 0)
	if v := r.FormValue("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			http.Error(w, "invalid from date: "+err.Error(), http.StatusBadRequest)
			return "", time.Time{}, time.Time{}, false
		}
		from = t
	}
	return user, from, to, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, extractor.ErrUnknownBank),
		errors.Is(err, email.ErrUnknownBank),
		errors.Is(err, accrual.ErrUnsupported),
		errors.Is(err, portfolio.ErrChronology):
		return http.StatusBadRequest
	case errors.Is(err, geometry.ErrPasswordRequired),
		errors.Is(err, geometry.ErrBadPassword),
		errors.Is(err, geometry.ErrCorrupt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ingest.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ingest.ErrNoMail), errors.Is(err, accrual.ErrRateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to encode response: %v", err)
	}
}
