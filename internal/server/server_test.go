package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore/memory"
)

func newTestServer(t *testing.T, cfg *config.Config) (*echo.Echo, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := New(cfg, store, nil, nil, nil)

	e := echo.New()
	e.Validator = &customValidator{validator: validator.New()}
	s.registerRoutes(e)
	return e, store
}

func do(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIndexWithoutQueueUnavailable(t *testing.T) {
	e, _ := newTestServer(t, &config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/index", nil)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if rec := do(e, req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without a queue", rec.Code)
	}
}

func TestUploadWithoutStorageUnavailable(t *testing.T) {
	e, _ := newTestServer(t, &config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	if rec := do(e, req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without queue and bucket", rec.Code)
	}
}

func TestDeleteDocumentRequiresDocID(t *testing.T) {
	e, _ := newTestServer(t, &config.Config{})

	req := httptest.NewRequest(http.MethodDelete, "/api/documents", nil)
	if rec := do(e, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without doc", rec.Code)
	}
}

func TestDeleteDocumentClearsGraph(t *testing.T) {
	ctx := context.Background()
	e, store := newTestServer(t, &config.Config{})

	err := store.UpsertSection(ctx, "doc-1", document.Section{
		SectionID: "section_1",
		Title:     "Overview",
		Level:     1,
		PageStart: 1,
		PageEnd:   2,
	})
	if err != nil {
		t.Fatalf("UpsertSection: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/documents?doc=doc-1", nil)
	if rec := do(e, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	stats, err := store.Stats(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Sections != 0 {
		t.Errorf("sections = %d after delete, want 0", stats.Sections)
	}
}

func TestDeleteDocumentWithPathNeedsStorage(t *testing.T) {
	e, _ := newTestServer(t, &config.Config{})

	req := httptest.NewRequest(http.MethodDelete, "/api/documents?doc=doc-1&path=s3://reports/doc.json", nil)
	if rec := do(e, req); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when the object cannot be removed", rec.Code)
	}
}

func TestAuthGuardsRoutes(t *testing.T) {
	secret := "test-secret"
	e, _ := newTestServer(t, &config.Config{APISecret: secret})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	if rec := do(e, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without a token", rec.Code)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := do(e, req); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with a valid token", rec.Code)
	}
}
