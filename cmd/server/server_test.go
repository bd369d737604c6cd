package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/infrastructure"
	"github.com/JaimeStill/folio/internal/sink"
)

func TestRouterHealthEndpoints(t *testing.T) {
	cfg := &config.Config{}
	cfg.API.BasePath = "/api"
	cfg.API.MaxUploadSize = "1MB"
	cfg.Pipeline = config.PipelineConfig{MaxFileSize: "1MB", ChunkSize: 4, MaxDimension: 10, Quality: 0.5, Workers: 1}
	cfg.Sink = sink.Config{Kind: sink.KindLocal, Directory: t.TempDir()}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("NewModules() error = %v", err)
	}

	router := buildRouter(infra)
	if err := modules.Mount(router); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}

	get := func(path string) int {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		return rec.Code
	}

	if code := get("/healthz"); code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", code)
	}
	if code := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup: got %d, want 503", code)
	}

	infra.Lifecycle.WaitForStartup()

	if code := get("/readyz"); code != http.StatusOK {
		t.Errorf("readyz after startup: got %d, want 200", code)
	}
	if code := get("/api/selection"); code != http.StatusOK {
		t.Errorf("api selection: got %d, want 200", code)
	}
}
