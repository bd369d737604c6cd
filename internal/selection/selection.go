// Package selection holds the in-memory set of files chosen for the next
// document, their preview handles, the document display name, and the
// in-progress indicator.
package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/pkg/notify"
)

// Entry is a selected file as presented to the host.
type Entry struct {
	Name        string  `json:"name"`
	ContentType string  `json:"content_type"`
	Size        int64   `json:"size"`
	Preview     Preview `json:"preview"`
}

// View is a point-in-time snapshot of the selection.
type View struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
	Busy    bool    `json:"busy"`
}

// Selection is the pending file set. The file and preview lists are kept the
// same length and index-aligned.
type Selection struct {
	mu       sync.Mutex
	files    []files.File
	previews []Preview
	name     string
	busy     bool

	store    PreviewStore
	notifier notify.Notifier
}

// New creates an empty Selection.
func New(store PreviewStore, notifier notify.Notifier) *Selection {
	return &Selection{
		store:    store,
		notifier: notifier,
	}
}

// AddFiles appends every candidate with a supported type and creates its
// preview. Rejected candidates are reported through the notifier, and the
// notifier carried by ctx, and joined into the returned error; accepted
// candidates are kept regardless. Nothing is added while an upload runs.
func (s *Selection) AddFiles(ctx context.Context, candidates ...files.File) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifier := notify.Scoped(ctx, s.notifier)

	if s.busy {
		notify.Errorf(notifier, ErrBusy.Error())
		return s.view(), ErrBusy
	}

	var errs []error

	for _, f := range candidates {
		if !files.Supported(f.ContentType) {
			notify.Errorf(notifier, fmt.Sprintf("Unsupported file type: %s", f.ContentType))
			errs = append(errs, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFileType, f.Name, f.ContentType))
			continue
		}

		p, err := s.store.Create(f)
		if err != nil {
			notify.Errorf(notifier, fmt.Sprintf("Unable to preview %s", f.Name))
			errs = append(errs, fmt.Errorf("preview %s: %w", f.Name, err))
			continue
		}

		s.files = append(s.files, f)
		s.previews = append(s.previews, p)
	}

	if s.name == "" && len(s.files) > 0 {
		s.name = s.files[0].Name
	}

	return s.view(), errors.Join(errs...)
}

// RemoveFile releases the preview at index and drops the entry. Removing the
// last entry clears the display name. It fails with ErrBusy while an upload
// runs.
func (s *Selection) RemoveFile(index int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return s.view(), ErrBusy
	}

	if index < 0 || index >= len(s.files) {
		return s.view(), fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	s.store.Release(s.previews[index])

	s.files = append(s.files[:index:index], s.files[index+1:]...)
	s.previews = append(s.previews[:index:index], s.previews[index+1:]...)

	if len(s.files) == 0 {
		s.name = ""
	}

	return s.view(), nil
}

// Clear releases every preview and empties the selection and display name.
func (s *Selection) Clear() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	return s.view()
}

// Discard clears the selection on behalf of the user. Unlike Clear, which the
// running upload uses once it succeeds, it fails with ErrBusy during an upload.
func (s *Selection) Discard() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return s.view(), ErrBusy
	}
	s.clear()
	return s.view(), nil
}

func (s *Selection) clear() {
	for _, p := range s.previews {
		s.store.Release(p)
	}

	s.files = nil
	s.previews = nil
	s.name = ""
}

// SetName overrides the display name of the next document.
func (s *Selection) SetName(name string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	return s.view()
}

// Name returns the display name.
func (s *Selection) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Files returns a copy of the selected files in selection order.
func (s *Selection) Files() []files.File {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]files.File, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of selected files.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// View returns a snapshot of the selection.
func (s *Selection) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Begin raises the in-progress indicator. It fails with ErrBusy while another
// upload holds it.
func (s *Selection) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// End clears the in-progress indicator.
func (s *Selection) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

// Busy reports whether an upload is in progress.
func (s *Selection) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Selection) view() View {
	entries := make([]Entry, len(s.files))
	for i, f := range s.files {
		entries[i] = Entry{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        f.Size,
			Preview:     s.previews[i],
		}
	}

	return View{
		Name:    s.name,
		Entries: entries,
		Busy:    s.busy,
	}
}
