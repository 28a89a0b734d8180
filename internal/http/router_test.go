package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/complaintdesk/backend/internal/config"
	"github.com/complaintdesk/backend/internal/kv"
	"github.com/complaintdesk/backend/internal/store"
)

func newRouter(t *testing.T, adminKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := kv.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	st, err := store.Open(context.Background(), backend)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cfg := config.Config{AdminKey: adminKey, CORSAllowed: "*"}
	return Router(cfg, st, zerolog.Nop())
}

func TestAdminRoutesRequireKey(t *testing.T) {
	r := newRouter(t, "secret")
	body := `{"name":"Acme","responseTimeDays":7,"escalationTimeDays":14}`

	req, _ := http.NewRequest(http.MethodPost, "/api/organizations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", w.Code)
	}

	req, _ = http.NewRequest(http.MethodPost, "/api/organizations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with key, got %d: %s", w.Code, w.Body.String())
	}
}

func TestReadRoutesStayOpen(t *testing.T) {
	r := newRouter(t, "secret")

	req, _ := http.NewRequest(http.MethodGet, "/api/complaints", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	r := newRouter(t, "")

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}
