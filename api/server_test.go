package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vidishraj/akkountant/config"
	"github.com/vidishraj/akkountant/extractor/common"
	"github.com/vidishraj/akkountant/ingest"
	"github.com/vidishraj/akkountant/integrations/gmail"
	"github.com/vidishraj/akkountant/integrations/sqlite"
)

type flatRate struct{}

func (flatRate) RateForMonth(string, common.SecurityType) (decimal.Decimal, error) {
	return decimal.NewFromInt(7), nil
}

func newServer(t *testing.T) *Server {
	t.Helper()
	config.UseDefaults()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := ingest.New(db, flatRate{})
	svc.TempDir = t.TempDir()
	return New(DefaultConfig(), svc)
}

func upload(t *testing.T, target string, fields map[string]string, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
}

func TestHealthEndpoint(t *testing.T) {
	w := serve(newServer(t), httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response["status"])
	}
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	w := serve(newServer(t), httptest.NewRequest(http.MethodGet, "/extract", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")

	w := serve(newServer(t), req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExtractEndpoint_InvalidFileReportsError(t *testing.T) {
	req := upload(t, "/extract", map[string]string{"bank": "Millenia_Credit"}, "test.pdf", []byte("not a valid pdf"))

	w := serve(newServer(t), req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["error"] == nil || response["error"] == "" {
		t.Error("Expected the parse error to be reported")
	}
}

func TestExtractEndpoint_UnknownBank(t *testing.T) {
	req := upload(t, "/extract", map[string]string{"bank": "MAYBANK_CASA_AND_MAE"}, "test.pdf", []byte("%PDF"))

	w := serve(newServer(t), req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestStatementEndpoint(t *testing.T) {
	s := newServer(t)

	w := serve(s, upload(t, "/statements", map[string]string{"bank": "Millenia_Credit"}, "feb.pdf", []byte("x")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without user, got %d", w.Code)
	}

	fields := map[string]string{"bank": "Millenia_Credit", "user": "u1"}
	w = serve(s, upload(t, "/statements", fields, "feb.pdf", []byte("not a valid pdf")))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422 for a corrupt file, got %d", w.Code)
	}
}

func TestDepositEndpoints(t *testing.T) {
	s := newServer(t)

	values := url.Values{
		"user":        {"u1"},
		"type":        {"PPF"},
		"date":        {"2023-04-03"},
		"description": {"April"},
		"amount":      {"5000"},
	}
	w := serve(s, form(http.MethodPost, "/deposits", values))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created map[string]string
	json.NewDecoder(w.Body).Decode(&created)
	if created["buy_id"] == "" {
		t.Fatal("Expected a buy_id")
	}

	w = serve(s, form(http.MethodPost, "/deposits", values))
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for a second deposit on the day, got %d", w.Code)
	}

	w = serve(s, httptest.NewRequest(http.MethodGet, "/accrual?user=u1&type=PPF", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary map[string]any
	json.NewDecoder(w.Body).Decode(&summary)
	if deposits, _ := summary["deposits"].([]any); len(deposits) != 1 {
		t.Errorf("Expected 1 deposit in the summary, got %v", summary["deposits"])
	}

	w = serve(s, httptest.NewRequest(http.MethodDelete, "/deposits?user=u1&buy_id="+created["buy_id"], nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	w = serve(s, httptest.NewRequest(http.MethodDelete, "/deposits?user=u1&buy_id="+created["buy_id"], nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestAccrualEndpoint_UnsupportedType(t *testing.T) {
	w := serve(newServer(t), httptest.NewRequest(http.MethodGet, "/accrual?user=u1&type=GOLD", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestEmailEndpoint_NoMailbox(t *testing.T) {
	values := url.Values{"user": {"u1"}, "bank": {"Millenia_Credit"}, "from": {"2024-04-01"}}
	w := serve(newServer(t), form(http.MethodPost, "/emails", values))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

type emptyMail struct{}

func (emptyMail) Snippets(context.Context, string, time.Time, time.Time) ([]string, error) {
	return nil, nil
}

func (emptyMail) Attachments(context.Context, string, time.Time, time.Time) ([]gmail.Attachment, error) {
	return nil, nil
}

func TestEmailEndpoint_UnknownBank(t *testing.T) {
	s := newServer(t)
	s.svc.Mail = emptyMail{}

	values := url.Values{"user": {"u1"}, "bank": {"BOI_DEBIT"}}
	w := serve(s, form(http.MethodPost, "/emails", values))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for a bank without alert patterns, got %d", w.Code)
	}

	values.Set("bank", "Millenia_Credit")
	w = serve(s, form(http.MethodPost, "/emails", values))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEmailEndpoint_BadDate(t *testing.T) {
	values := url.Values{"user": {"u1"}, "bank": {"Millenia_Credit"}, "from": {"01/04/2024"}}
	w := serve(newServer(t), form(http.MethodPost, "/emails", values))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestPasswordEndpoint(t *testing.T) {
	s := newServer(t)

	values := url.Values{"user": {"u1"}, "bank": {"Millenia_Credit"}, "password": {"ABCD1234"}}
	w := serve(s, form(http.MethodPost, "/passwords", values))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}

	values.Set("bank", "NOPE")
	w = serve(s, form(http.MethodPost, "/passwords", values))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestHandler(t *testing.T) {
	server := newServer(t)

	if server.Handler() != server.mux {
		t.Error("Expected handler to be the server's mux")
	}
}
