package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/folio/internal/assembly"
	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/notify"
)

type memorySink struct {
	mu     sync.Mutex
	chunks []transfer.Chunk
	data   bytes.Buffer
	err    error
}

func (s *memorySink) StoreChunk(ctx context.Context, c transfer.Chunk) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}

	raw, err := transfer.DecodeChunk(c.Data)
	if err != nil {
		return "", err
	}
	s.data.Write(raw)
	s.chunks = append(s.chunks, c)
	return fmt.Sprintf("att-%d", len(s.chunks)), nil
}

type harness struct {
	proc  *pipeline.Processor
	sel   *selection.Selection
	store *selection.MemoryPreviews
	feed  *notify.Feed
	sink  *memorySink
}

func newHarness(maxFileSize int64, chunkSize int) *harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	feed := notify.NewFeed()
	sink := &memorySink{}
	store := selection.NewMemoryPreviews("/api/previews")

	normalizer := images.New(images.Config{
		MaxFileSize:  maxFileSize,
		MaxDimension: 1000,
		Quality:      0.5,
	}, logger)

	uploader := transfer.New(sink, transfer.Config{
		MaxPayloadSize: maxFileSize,
		ChunkSize:      chunkSize,
	}, logger)

	return &harness{
		proc:  pipeline.New(normalizer, uploader, feed, logger, 4),
		sel:   selection.New(store, feed),
		store: store,
		feed:  feed,
		sink:  sink,
	}
}

func pngFile(t *testing.T, name string, w, h int) files.File {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 3), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return files.FromBytes(name, files.PNG, buf.Bytes())
}

func pageDims(t *testing.T, data []byte) [][2]float64 {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(data), nil)
	if err != nil {
		t.Fatalf("PageDims() error = %v", err)
	}
	out := make([][2]float64, len(dims))
	for i, d := range dims {
		out[i] = [2]float64{d.Width, d.Height}
	}
	return out
}

func TestProcessEndToEnd(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)

	if _, err := h.sel.AddFiles(context.Background(), pngFile(t, "tall.png", 100, 200), pngFile(t, "wide.png", 2000, 500)); err != nil {
		t.Fatalf("AddFiles() error = %v", err)
	}

	result, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.PageCount != 2 {
		t.Errorf("page count: got %d, want 2", result.PageCount)
	}
	if result.Name != "tall.png" {
		t.Errorf("name: got %q, want tall.png", result.Name)
	}
	if result.Session.State != transfer.Succeeded {
		t.Errorf("state: got %s, want succeeded", result.Session.State)
	}

	got := pageDims(t, h.sink.data.Bytes())
	want := [][2]float64{{100, 200}, {1000, 250}}
	if len(got) != len(want) {
		t.Fatalf("uploaded pages: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d: got %v, want %v", i+1, got[i], want[i])
		}
	}

	for _, c := range h.sink.chunks {
		if c.ParentID != "record-1" || c.ContentType != assembly.ContentType || c.FileName != "tall.png" {
			t.Errorf("chunk identity: %+v", c)
		}
	}

	if h.sel.Len() != 0 || h.sel.Name() != "" || h.store.Live() != 0 {
		t.Errorf("selection not cleared: files %d, name %q, previews %d", h.sel.Len(), h.sel.Name(), h.store.Live())
	}
	if h.sel.Busy() {
		t.Error("busy indicator not cleared")
	}

	items := h.feed.Drain()
	if len(items) != 1 || items[0].Severity != notify.Success {
		t.Errorf("notifications: got %+v, want one success", items)
	}
}

func TestProcessPreservesInputOrder(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)

	// the large first image finishes normalizing last
	fs := []files.File{
		pngFile(t, "big.png", 1600, 1200),
		pngFile(t, "a.png", 10, 20),
		pngFile(t, "b.png", 30, 40),
		pngFile(t, "c.png", 50, 60),
	}

	data, doc, err := h.proc.Assemble(context.Background(), fs)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := [][2]float64{{1000, 750}, {10, 20}, {30, 40}, {50, 60}}

	for i, p := range doc.Pages() {
		if [2]float64{p.Width, p.Height} != want[i] {
			t.Errorf("page %d layout: got %.0fx%.0f, want %v", i+1, p.Width, p.Height, want[i])
		}
	}

	got := pageDims(t, data)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("page %d: got %v, want %v", i+1, got[i], want[i])
		}
	}
}

func TestProcessOversizedInput(t *testing.T) {
	valid := pngFile(t, "ok.png", 20, 20)
	h := newHarness(valid.Size+1, 8)

	huge := files.New("huge.png", files.PNG, valid.Size+2, func() (io.ReadCloser, error) {
		return nil, errors.New("should not open")
	})

	h.sel.AddFiles(context.Background(), valid, huge, pngFile(t, "ok2.png", 20, 20))
	before := h.sel.View()

	_, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, images.ErrOversizedInput) {
		t.Fatalf("error = %v, want ErrOversizedInput", err)
	}

	if len(h.sink.chunks) != 0 {
		t.Errorf("chunks sent: got %d, want 0", len(h.sink.chunks))
	}

	after := h.sel.View()
	if len(after.Entries) != len(before.Entries) || after.Name != before.Name {
		t.Errorf("selection changed: before %+v, after %+v", before, after)
	}
	if h.store.Live() != 3 {
		t.Errorf("live previews: got %d, want 3", h.store.Live())
	}
	if h.sel.Busy() {
		t.Error("busy indicator not cleared after failure")
	}

	items := h.feed.Drain()
	if len(items) != 1 || items[0].Severity != notify.Error {
		t.Fatalf("notifications: got %+v, want one error", items)
	}
	if !strings.Contains(items[0].Message, "huge.png") {
		t.Errorf("message should name the file: %q", items[0].Message)
	}
}

func TestProcessDecodeFailureIsAssemblyError(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)
	h.sel.AddFiles(context.Background(), pngFile(t, "ok.png", 5, 5), files.FromBytes("broken.png", files.PNG, []byte("not a png")))

	_, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, assembly.ErrAssemblyFailed) {
		t.Fatalf("error = %v, want ErrAssemblyFailed", err)
	}
	if !errors.Is(err, images.ErrDecodeFailed) {
		t.Errorf("error should wrap ErrDecodeFailed: %v", err)
	}
	if h.sel.Len() != 2 {
		t.Errorf("selection changed: %d files", h.sel.Len())
	}
}

func TestProcessTransferFailure(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)
	h.sink.err = errors.New("insufficient access on record")
	h.sel.AddFiles(context.Background(), pngFile(t, "a.png", 8, 8))

	result, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, transfer.ErrTransferFailed) {
		t.Fatalf("error = %v, want ErrTransferFailed", err)
	}
	if result == nil || result.Session == nil || result.Session.State != transfer.Failed {
		t.Errorf("result should carry failed session: %+v", result)
	}
	if h.sel.Len() != 1 {
		t.Errorf("selection should be untouched, got %d files", h.sel.Len())
	}

	items := h.feed.Drain()
	if len(items) != 1 || !strings.Contains(items[0].Message, "insufficient access on record") {
		t.Errorf("notifications: got %+v", items)
	}
}

func TestProcessPayloadTooLarge(t *testing.T) {
	f := pngFile(t, "a.png", 300, 300)

	// every input passes its own gate, the finished PDF cannot
	h := newHarness(f.Size+10, 8)
	h.sel.AddFiles(context.Background(), f, pngFile(t, "b.png", 300, 300))

	_, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, transfer.ErrPayloadTooLarge) {
		t.Fatalf("error = %v, want ErrPayloadTooLarge", err)
	}
	if len(h.sink.chunks) != 0 {
		t.Errorf("chunks sent: got %d, want 0", len(h.sink.chunks))
	}
}

func TestProcessEmptySelection(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)

	_, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, pipeline.ErrNoFiles) {
		t.Fatalf("error = %v, want ErrNoFiles", err)
	}

	items := h.feed.Drain()
	if len(items) != 1 || items[0].Message != "Please select files to upload" {
		t.Errorf("notifications: got %+v", items)
	}
}

func TestProcessBusy(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)
	h.sel.AddFiles(context.Background(), pngFile(t, "a.png", 8, 8))

	if err := h.sel.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	_, err := h.proc.Process(context.Background(), h.sel, "record-1")
	if !errors.Is(err, selection.ErrBusy) {
		t.Fatalf("error = %v, want ErrBusy", err)
	}
	if !h.sel.Busy() {
		t.Error("rejected run must not release another run's indicator")
	}
}

func TestProcessNotifiesRequestScope(t *testing.T) {
	h := newHarness(5_000_000, 2_500_000)
	h.sel.AddFiles(context.Background(), pngFile(t, "a.png", 8, 8))

	scoped := notify.NewFeed()
	ctx := notify.NewContext(context.Background(), scoped)

	if _, err := h.proc.Process(ctx, h.sel, "record-1"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	items := scoped.Drain()
	if len(items) != 1 || items[0].Severity != notify.Success {
		t.Errorf("scoped notifications: got %+v, want one success", items)
	}
	if h.feed.Len() != 1 {
		t.Errorf("base notifications: got %d, want 1", h.feed.Len())
	}
}
