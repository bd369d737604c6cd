package api

import (
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/notify"
)

// Domain holds the systems behind the workspace. The server hosts a single
// selection shared by every request; notifications are logged here and
// delivered to the response of the request that raised them.
type Domain struct {
	Previews  *selection.MemoryPreviews
	Selection *selection.Selection
	Processor *pipeline.Processor
}

// NewDomain creates the workspace systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	notifier := notify.Log(runtime.Logger)

	previews := selection.NewMemoryPreviews(runtime.BasePath + "/previews")

	normalizer := images.New(runtime.Pipeline.NormalizeConfig(), runtime.Logger)
	uploader := transfer.New(runtime.Sink, runtime.Pipeline.TransferConfig(), runtime.Logger)

	return &Domain{
		Previews:  previews,
		Selection: selection.New(previews, notifier),
		Processor: pipeline.New(normalizer, uploader, notifier, runtime.Logger, runtime.Pipeline.Workers),
	}
}
