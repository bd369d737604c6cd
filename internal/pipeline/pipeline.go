// Package pipeline turns a selection into an uploaded document: concurrent
// normalization, a barrier, a sequential embed pass in input order, the final
// size gate, and the chunked transfer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/folio/internal/assembly"
	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/notify"
)

// ErrNoFiles is returned when an upload is triggered on an empty selection.
var ErrNoFiles = errors.New("no files selected")

const (
	genericMessage = "Error processing the files"
	successMessage = "File was successfully uploaded."
)

// Result reports a completed upload.
type Result struct {
	Name      string            `json:"name"`
	PageCount int               `json:"page_count"`
	Bytes     int               `json:"bytes"`
	Session   *transfer.Session `json:"session"`
}

// Processor runs the image-to-document upload pipeline.
type Processor struct {
	normalizer *images.Normalizer
	uploader   *transfer.Uploader
	notifier   notify.Notifier
	logger     *slog.Logger
	workers    int
}

// New creates a Processor. workers bounds concurrent normalization; values
// below one mean unbounded.
func New(
	normalizer *images.Normalizer,
	uploader *transfer.Uploader,
	notifier notify.Notifier,
	logger *slog.Logger,
	workers int,
) *Processor {
	return &Processor{
		normalizer: normalizer,
		uploader:   uploader,
		notifier:   notifier,
		logger:     logger.With("system", "pipeline"),
		workers:    workers,
	}
}

// Assemble normalizes every file concurrently, waits for all of them, then
// embeds the results in input order and finalizes the document. The first
// failure aborts the batch and discards sibling results.
func (p *Processor) Assemble(ctx context.Context, fs []files.File) ([]byte, *assembly.Document, error) {
	normalized := make([]images.Image, len(fs))

	g, gctx := errgroup.WithContext(ctx)
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}

	for i, f := range fs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			img, err := p.normalizer.Normalize(gctx, f)
			if err != nil {
				return err
			}

			normalized[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, images.ErrOversizedInput) || errors.Is(err, context.Canceled) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %w", assembly.ErrAssemblyFailed, err)
	}

	doc := assembly.New()
	for i, img := range normalized {
		if err := doc.Embed(img); err != nil {
			return nil, nil, fmt.Errorf("embed %s: %w", fs[i].Name, err)
		}
	}

	data, err := doc.Finalize()
	if err != nil {
		return nil, nil, err
	}

	p.logger.InfoContext(
		ctx, "document assembled",
		"pages", doc.PageCount(),
		"bytes", len(data),
	)

	return data, doc, nil
}

// Process uploads the current selection as one document to targetID. The
// selection's in-progress indicator is held for the duration and always
// released; the selection rejects edits meanwhile, so the files cleared on
// success are exactly the files uploaded. On failure the selection is left
// as-is and a single error notification is emitted. Notifications also reach
// the notifier carried by ctx.
func (p *Processor) Process(ctx context.Context, sel *selection.Selection, targetID string) (*Result, error) {
	notifier := notify.Scoped(ctx, p.notifier)

	if err := sel.Begin(); err != nil {
		notify.Errorf(notifier, err.Error())
		return nil, err
	}
	defer sel.End()

	fs := sel.Files()
	if len(fs) == 0 {
		notify.Errorf(notifier, "Please select files to upload")
		return nil, ErrNoFiles
	}

	name := sel.Name()

	result, err := p.run(ctx, fs, targetID, name)
	if err != nil {
		p.logger.ErrorContext(ctx, "upload failed", "name", name, "error", err)
		notify.Errorf(notifier, message(err))
		return result, err
	}

	sel.Clear()
	notifier.Notify(notify.Notification{
		Title:    "Success",
		Message:  successMessage,
		Severity: notify.Success,
	})

	return result, nil
}

func (p *Processor) run(ctx context.Context, fs []files.File, targetID, name string) (*Result, error) {
	data, doc, err := p.Assemble(ctx, fs)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Name:      name,
		PageCount: doc.PageCount(),
		Bytes:     len(data),
	}

	session, err := p.uploader.Upload(ctx, data, transfer.Request{
		TargetID:    targetID,
		ContentType: assembly.ContentType,
		Name:        name,
	})
	result.Session = session
	if err != nil {
		return result, err
	}

	return result, nil
}

func message(err error) string {
	if err == nil || err.Error() == "" {
		return genericMessage
	}
	return err.Error()
}
