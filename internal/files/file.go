// Package files defines the pending input file handed from selection to the
// normalization pipeline, along with the set of accepted image types.
package files

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Supported image MIME types.
const (
	PNG  = "image/png"
	JPEG = "image/jpeg"
	WebP = "image/webp"
)

var supported = []string{PNG, JPEG, WebP}

// Supported reports whether contentType is one of the accepted image types.
func Supported(contentType string) bool {
	return slices.Contains(supported, contentType)
}

// File is a user-selected input. Content is opened on demand so the caller
// controls how long the underlying bytes or handle stay acquired.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// New creates a File backed by an arbitrary opener.
func New(name, contentType string, size int64, open func() (io.ReadCloser, error)) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		open:        open,
	}
}

// FromBytes creates a File over an in-memory buffer.
func FromBytes(name, contentType string, data []byte) File {
	return New(name, contentType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// FromPath creates a File for a path on disk. The content type is sniffed
// from the leading bytes, falling back to the extension.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	contentType, err := sniffPath(path)
	if err != nil {
		return File{}, err
	}

	return New(filepath.Base(path), contentType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// FromMultipart creates a File from an uploaded multipart part. The part is
// buffered in memory because request temp files do not outlive the request.
// The declared part content type wins over sniffing unless it is missing or
// generic.
func FromMultipart(header *multipart.FileHeader) (File, error) {
	f, err := header.Open()
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType, err = sniff(bytes.NewReader(data), header.Filename)
		if err != nil {
			return File{}, err
		}
	}

	return FromBytes(filepath.Base(header.Filename), contentType, data), nil
}

// Open acquires the file content. The caller must close the reader.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return f.open()
}

// ReadAll opens the file and reads its full content.
func (f File) ReadAll() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func sniffPath(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return sniff(f, path)
}

func sniff(r io.Reader, name string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read %s: %w", name, err)
	}

	contentType := http.DetectContentType(head[:n])
	if contentType != "application/octet-stream" {
		return contentType, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".webp":
		return WebP, nil
	}
	return contentType, nil
}
