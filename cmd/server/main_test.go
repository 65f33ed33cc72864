package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/persistence/record"
	"blueprints.ai/internal/registry"
	"blueprints.ai/internal/sim/gridtest"
	"blueprints.ai/internal/transport/ws"
	"blueprints.ai/internal/tuning"
)

func testMux(t *testing.T) *http.ServeMux {
	t.Helper()
	t.Setenv("BP_ENABLE_ADMIN_HTTP", "true")
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 12, 8)
	rect := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{X: 1, Z: 1}, "Bedroom")
	ctrl := registry.NewController(nil, registry.Options{
		Store:    record.NewStore(t.TempDir()),
		Catalogs: cats,
		Host:     m,
	})
	if _, err := ctrl.Create(rect.Cells()); err != nil {
		t.Fatalf("create: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	return newMux(ws.NewServer(ctrl, tuning.Defaults().Server, logger), logger)
}

func TestTemplatesAndMetrics(t *testing.T) {
	mux := testMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/templates", nil))
	var views []templateView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].Name != "Bedroom_1" || views[0].Entries != 9 || views[0].Exported {
		t.Fatalf("views = %+v", views)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "blueprints_templates 1\n") || !strings.Contains(body, "blueprints_templates_exported 0\n") {
		t.Fatalf("metrics:\n%s", body)
	}
}

func TestAdminSaveAll(t *testing.T) {
	mux := testMux(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/v1/save_all", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote code = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/v1/save_all", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK    bool     `json:"ok"`
		Saved []string `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || len(resp.Saved) != 1 || resp.Saved[0] != "Bedroom_1" {
		t.Fatalf("resp = %+v", resp)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "blueprints_templates_exported 1\n") {
		t.Fatalf("metrics:\n%s", rec.Body.String())
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	if !isLoopbackRemote("127.0.0.1:80") || !isLoopbackRemote("[::1]:80") {
		t.Fatalf("loopback not detected")
	}
	if isLoopbackRemote("10.0.0.1:80") {
		t.Fatalf("private address is not loopback")
	}
}
