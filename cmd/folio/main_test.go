package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	content := "[sink]\nkind = \"local\"\ndirectory = \"" + filepath.ToSlash(filepath.Join(dir, "out")) + "\"\n"
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestUploadCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	a := writePNG(t, dir, "a.png", 20, 10)
	b := writePNG(t, dir, "b.png", 10, 20)

	out, err := run(t, "upload", "-c", cfgPath, "-t", "record-3", "-n", "Scans", "-q", a, b)
	if err != nil {
		t.Fatalf("upload: %v\n%s", err, out)
	}

	if !strings.Contains(out, "File was successfully uploaded.") {
		t.Errorf("missing success notification:\n%s", out)
	}
	if !strings.Contains(out, "Scans: 2 pages") {
		t.Errorf("missing summary:\n%s", out)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "out", "record-3", "*", "Scans"))
	if len(matches) != 1 {
		t.Fatalf("uploaded objects: got %v", matches)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open upload: %v", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil || n != 2 {
		t.Errorf("page count: got %d (%v), want 2", n, err)
	}
}

func TestUploadCommandRequiresTarget(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "upload", "-c", writeConfig(t, dir), writePNG(t, dir, "a.png", 2, 2))
	if err == nil || !strings.Contains(err.Error(), "--target") {
		t.Errorf("error = %v, want missing target", err)
	}
}

func TestAssembleCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bound.pdf")

	gif := filepath.Join(dir, "skip.gif")
	os.WriteFile(gif, []byte("GIF89a"), 0o644)

	stdout, err := run(t, "assemble", "-c", writeConfig(t, dir), "-o", out,
		writePNG(t, dir, "a.png", 3, 3), gif)
	if err != nil {
		t.Fatalf("assemble: %v\n%s", err, stdout)
	}

	if !strings.Contains(stdout, "Unsupported file type: image/gif") {
		t.Errorf("gif should be reported:\n%s", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	if n, err := api.PageCount(f, nil); err != nil || n != 1 {
		t.Errorf("page count: got %d (%v), want 1", n, err)
	}
}
