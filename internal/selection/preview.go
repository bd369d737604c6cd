package selection

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/folio/internal/files"
)

// Preview is a revocable display reference to a selected file.
type Preview struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// PreviewStore issues and releases preview handles. Every handle returned by
// Create must eventually be passed to Release.
type PreviewStore interface {
	Create(f files.File) (Preview, error)
	Release(p Preview)
}

// MemoryPreviews keeps previewed files in memory and addresses them by URL
// under a base path.
type MemoryPreviews struct {
	mu       sync.RWMutex
	basePath string
	entries  map[uuid.UUID]files.File
}

// NewMemoryPreviews creates a store whose preview URLs are basePath/{id}.
func NewMemoryPreviews(basePath string) *MemoryPreviews {
	return &MemoryPreviews{
		basePath: basePath,
		entries:  make(map[uuid.UUID]files.File),
	}
}

func (m *MemoryPreviews) Create(f files.File) (Preview, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return Preview{}, fmt.Errorf("create preview id: %w", err)
	}

	m.mu.Lock()
	m.entries[id] = f
	m.mu.Unlock()

	return Preview{
		ID:   id,
		Name: f.Name,
		URL:  fmt.Sprintf("%s/%s", m.basePath, id),
	}, nil
}

func (m *MemoryPreviews) Release(p Preview) {
	m.mu.Lock()
	delete(m.entries, p.ID)
	m.mu.Unlock()
}

// Find returns the file behind a live preview.
func (m *MemoryPreviews) Find(id uuid.UUID) (files.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.entries[id]
	if !ok {
		return files.File{}, ErrPreviewNotFound
	}
	return f, nil
}

// Live returns the number of unreleased previews.
func (m *MemoryPreviews) Live() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
