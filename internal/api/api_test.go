package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	folioapi "github.com/JaimeStill/folio/internal/api"
	"github.com/JaimeStill/folio/internal/assembly"
	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/infrastructure"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/internal/sink"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/notify"
)

type workspace struct {
	handler http.Handler
	dir     string
}

func newWorkspace(t *testing.T, targetID string) *workspace {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		API: config.APIConfig{BasePath: "/api", MaxUploadSize: "10MB"},
		Pipeline: config.PipelineConfig{
			MaxFileSize:  "5MB",
			ChunkSize:    4000,
			MaxDimension: 1000,
			Quality:      0.5,
			Workers:      2,
			TargetID:     targetID,
		},
		Sink: sink.Config{Kind: sink.KindLocal, Directory: dir},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	infra, err := infrastructure.NewWithLogger(cfg, logger)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	m, err := folioapi.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	return &workspace{handler: m, dir: dir}
}

func (ws *workspace) do(t *testing.T, req *http.Request) (int, folioapi.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	ws.handler.ServeHTTP(rec, req)

	var body folioapi.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec.Code, body
}

type part struct {
	name        string
	contentType string
	data        []byte
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func addFilesRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, p := range parts {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="files"; filename=%q`, p.name)}
		h["Content-Type"] = []string{p.contentType}
		w, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		w.Write(p.data)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/selection/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAddFilesAndView(t *testing.T) {
	ws := newWorkspace(t, "record-1")

	status, body := ws.do(t, addFilesRequest(t,
		part{"first.png", "image/png", pngBytes(t, 4, 4)},
		part{"notes.gif", "image/gif", []byte("GIF89a")},
		part{"second.png", "image/png", pngBytes(t, 6, 3)},
	))

	if status != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", status, body.Error)
	}
	if len(body.Selection.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(body.Selection.Entries))
	}
	if body.Selection.Name != "first.png" {
		t.Errorf("name: got %q, want first.png", body.Selection.Name)
	}
	if len(body.Notifications) != 1 || body.Notifications[0].Message != "Unsupported file type: image/gif" {
		t.Errorf("notifications: %+v", body.Notifications)
	}

	status, body = ws.do(t, httptest.NewRequest("GET", "/api/selection", nil))
	if status != http.StatusOK || len(body.Selection.Entries) != 2 {
		t.Errorf("view: status %d, entries %d", status, len(body.Selection.Entries))
	}
	if len(body.Notifications) != 0 {
		t.Errorf("notifications should be drained, got %+v", body.Notifications)
	}
}

func TestAddFilesOnlyUnsupported(t *testing.T) {
	ws := newWorkspace(t, "record-1")

	status, body := ws.do(t, addFilesRequest(t, part{"doc.pdf", "application/pdf", []byte("%PDF-1.7")}))

	if status != http.StatusUnsupportedMediaType {
		t.Errorf("status: got %d, want 415", status)
	}
	if !strings.Contains(body.Error, "unsupported file type") {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestPreview(t *testing.T) {
	ws := newWorkspace(t, "record-1")
	data := pngBytes(t, 3, 3)

	_, body := ws.do(t, addFilesRequest(t, part{"a.png", "image/png", data}))
	url := body.Selection.Entries[0].Preview.URL

	rec := httptest.NewRecorder()
	ws.handler.ServeHTTP(rec, httptest.NewRequest("GET", url, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("preview status: got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("preview content mismatch")
	}

	ws.do(t, httptest.NewRequest("DELETE", "/api/selection/files/0", nil))

	rec = httptest.NewRecorder()
	ws.handler.ServeHTTP(rec, httptest.NewRequest("GET", url, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("released preview: got %d, want 404", rec.Code)
	}
}

func TestRemoveFile(t *testing.T) {
	ws := newWorkspace(t, "record-1")
	ws.do(t, addFilesRequest(t,
		part{"a.png", "image/png", pngBytes(t, 2, 2)},
		part{"b.png", "image/png", pngBytes(t, 2, 2)},
	))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantLen    int
	}{
		{"out of range", "/api/selection/files/5", http.StatusNotFound, 2},
		{"not a number", "/api/selection/files/x", http.StatusBadRequest, 2},
		{"first", "/api/selection/files/0", http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ws.do(t, httptest.NewRequest("DELETE", tt.path, nil))
			if status != tt.wantStatus {
				t.Errorf("status: got %d, want %d", status, tt.wantStatus)
			}
			if len(body.Selection.Entries) != tt.wantLen {
				t.Errorf("entries: got %d, want %d", len(body.Selection.Entries), tt.wantLen)
			}
		})
	}
}

func TestSetNameAndClear(t *testing.T) {
	ws := newWorkspace(t, "record-1")
	ws.do(t, addFilesRequest(t, part{"a.png", "image/png", pngBytes(t, 2, 2)}))

	status, body := ws.do(t, jsonRequest("PUT", "/api/selection/name", `{"name":"Receipts"}`))
	if status != http.StatusOK || body.Selection.Name != "Receipts" {
		t.Errorf("set name: status %d, name %q", status, body.Selection.Name)
	}

	status, _ = ws.do(t, jsonRequest("PUT", "/api/selection/name", `{`))
	if status != http.StatusBadRequest {
		t.Errorf("malformed body: got %d, want 400", status)
	}

	status, body = ws.do(t, httptest.NewRequest("DELETE", "/api/selection/files", nil))
	if status != http.StatusOK || len(body.Selection.Entries) != 0 || body.Selection.Name != "" {
		t.Errorf("clear: status %d, view %+v", status, body.Selection)
	}
}

func TestUpload(t *testing.T) {
	ws := newWorkspace(t, "")
	ws.do(t, addFilesRequest(t,
		part{"tall.png", "image/png", pngBytes(t, 40, 80)},
		part{"wide.png", "image/png", pngBytes(t, 1200, 300)},
	))

	status, body := ws.do(t, jsonRequest("POST", "/api/selection/upload", `{"target_id":"record-42"}`))
	if status != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", status, body.Error)
	}

	r := body.Result
	if r == nil || r.PageCount != 2 || r.Session.State != transfer.Succeeded {
		t.Fatalf("result: %+v", r)
	}
	if !strings.HasPrefix(r.Session.Token, "record-42/") {
		t.Errorf("token: got %q", r.Session.Token)
	}
	if len(body.Selection.Entries) != 0 {
		t.Errorf("selection should be cleared, got %d entries", len(body.Selection.Entries))
	}
	if len(body.Notifications) != 1 || body.Notifications[0].Severity != notify.Success {
		t.Errorf("notifications: %+v", body.Notifications)
	}

	data, err := os.ReadFile(filepath.Join(ws.dir, filepath.FromSlash(r.Session.Token)))
	if err != nil {
		t.Fatalf("read uploaded document: %v", err)
	}
	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("PageDims() error = %v", err)
	}
	if len(dims) != 2 || dims[0].Width != 40 || dims[1].Width != 1000 || dims[1].Height != 250 {
		t.Errorf("page dims: %+v", dims)
	}
}

func TestUploadFallsBackToConfiguredTarget(t *testing.T) {
	ws := newWorkspace(t, "record-default")
	ws.do(t, addFilesRequest(t, part{"a.png", "image/png", pngBytes(t, 5, 5)}))

	status, body := ws.do(t, httptest.NewRequest("POST", "/api/selection/upload", nil))
	if status != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", status, body.Error)
	}
	if !strings.HasPrefix(body.Result.Session.Token, "record-default/") {
		t.Errorf("token: got %q", body.Result.Session.Token)
	}
}

func TestUploadErrors(t *testing.T) {
	t.Run("missing target", func(t *testing.T) {
		ws := newWorkspace(t, "")
		ws.do(t, addFilesRequest(t, part{"a.png", "image/png", pngBytes(t, 5, 5)}))

		status, _ := ws.do(t, httptest.NewRequest("POST", "/api/selection/upload", nil))
		if status != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400", status)
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		ws := newWorkspace(t, "record-1")

		status, body := ws.do(t, httptest.NewRequest("POST", "/api/selection/upload", nil))
		if status != http.StatusBadRequest {
			t.Errorf("status: got %d, want 400", status)
		}
		if len(body.Notifications) != 1 || body.Notifications[0].Message != "Please select files to upload" {
			t.Errorf("notifications: %+v", body.Notifications)
		}
	})

	t.Run("undecodable image", func(t *testing.T) {
		ws := newWorkspace(t, "record-1")
		ws.do(t, addFilesRequest(t, part{"broken.png", "image/png", []byte("not really a png")}))

		status, body := ws.do(t, httptest.NewRequest("POST", "/api/selection/upload", nil))
		if status != http.StatusUnprocessableEntity {
			t.Errorf("status: got %d, want 422", status)
		}
		if len(body.Selection.Entries) != 1 {
			t.Errorf("selection should be kept after failure, got %d entries", len(body.Selection.Entries))
		}
		if body.Selection.Busy {
			t.Error("busy indicator should be cleared")
		}
	})
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no files", pipeline.ErrNoFiles, http.StatusBadRequest},
		{"missing target", folioapi.ErrMissingTarget, http.StatusBadRequest},
		{"oversized input", fmt.Errorf("x: %w", images.ErrOversizedInput), http.StatusRequestEntityTooLarge},
		{"payload too large", transfer.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"assembly", fmt.Errorf("%w: %w", assembly.ErrAssemblyFailed, images.ErrDecodeFailed), http.StatusUnprocessableEntity},
		{"transfer", fmt.Errorf("%w: chunk 2: boom", transfer.ErrTransferFailed), http.StatusBadGateway},
		{"busy", selection.ErrBusy, http.StatusConflict},
		{"unsupported", selection.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{"index", selection.ErrIndexOutOfRange, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := folioapi.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	ws := newWorkspace(t, "")

	rec := httptest.NewRecorder()
	ws.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/openapi.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var spec struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths      map[string]map[string]json.RawMessage `json:"paths"`
		Components struct {
			Schemas map[string]json.RawMessage `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	if spec.Info.Title != "Folio API" {
		t.Errorf("title: got %q", spec.Info.Title)
	}
	if len(spec.Servers) != 1 || spec.Servers[0].URL != "/api" {
		t.Errorf("servers: %+v", spec.Servers)
	}

	want := map[string][]string{
		"/selection":               {"get"},
		"/selection/files":         {"post", "delete"},
		"/selection/files/{index}": {"delete"},
		"/selection/name":          {"put"},
		"/selection/upload":        {"post"},
		"/previews/{id}":           {"get"},
	}
	for path, methods := range want {
		item, ok := spec.Paths[path]
		if !ok {
			t.Errorf("missing path %s", path)
			continue
		}
		for _, m := range methods {
			if _, ok := item[m]; !ok {
				t.Errorf("%s: missing %s", path, m)
			}
		}
	}

	// storage routes exist only with the blob sink
	if _, ok := spec.Paths["/storage/{key}"]; ok {
		t.Error("storage documented without blob sink")
	}

	for _, name := range []string{"WorkspaceResponse", "Selection", "Session", "Error"} {
		if _, ok := spec.Components.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}

func TestNotificationsStayWithTheirRequest(t *testing.T) {
	ws := newWorkspace(t, "record-1")
	ws.do(t, addFilesRequest(t, part{"a.png", "image/png", pngBytes(t, 300, 300)}))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		leaked []notify.Notification
	)

	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}

				rec := httptest.NewRecorder()
				ws.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/selection", nil))

				var body folioapi.Response
				if err := json.NewDecoder(rec.Body).Decode(&body); err == nil && len(body.Notifications) > 0 {
					mu.Lock()
					leaked = append(leaked, body.Notifications...)
					mu.Unlock()
				}
			}
		}()
	}

	status, body := ws.do(t, httptest.NewRequest("POST", "/api/selection/upload", nil))
	close(stop)
	wg.Wait()

	if status != http.StatusCreated {
		t.Fatalf("status: got %d (%s)", status, body.Error)
	}
	if len(body.Notifications) != 1 || body.Notifications[0].Severity != notify.Success {
		t.Errorf("upload notifications: %+v", body.Notifications)
	}
	if len(leaked) != 0 {
		t.Errorf("view responses received upload notifications: %+v", leaked)
	}
}
