package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/folio/internal/files"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/pkg/handlers"
	"github.com/JaimeStill/folio/pkg/notify"
	"github.com/JaimeStill/folio/pkg/routes"
)

// Response is the body returned by every workspace endpoint. Notifications
// raised while serving the request are drained into it.
type Response struct {
	Selection     selection.View        `json:"selection"`
	Result        *pipeline.Result      `json:"result,omitempty"`
	Error         string                `json:"error,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type uploadRequest struct {
	TargetID string `json:"target_id"`
}

type workspaceHandler struct {
	domain        *Domain
	logger        *slog.Logger
	maxUploadSize int64
	targetID      string
}

func newWorkspaceHandler(domain *Domain, logger *slog.Logger, maxUploadSize int64, targetID string) *workspaceHandler {
	return &workspaceHandler{
		domain:        domain,
		logger:        logger.With("handler", "workspace"),
		maxUploadSize: maxUploadSize,
		targetID:      targetID,
	}
}

func (h *workspaceHandler) routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/selection",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: h.view, OpenAPI: workspaceOps.View},
					{Method: "POST", Pattern: "/files", Handler: h.addFiles, OpenAPI: workspaceOps.AddFiles},
					{Method: "DELETE", Pattern: "/files/{index}", Handler: h.removeFile, OpenAPI: workspaceOps.RemoveFile},
					{Method: "DELETE", Pattern: "/files", Handler: h.clear, OpenAPI: workspaceOps.Clear},
					{Method: "PUT", Pattern: "/name", Handler: h.setName, OpenAPI: workspaceOps.SetName},
					{Method: "POST", Pattern: "/upload", Handler: h.upload, OpenAPI: workspaceOps.Upload},
				},
			},
			{
				Prefix: "/previews",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/{id}", Handler: h.preview, OpenAPI: workspaceOps.Preview},
				},
			},
		},
	}
}

func (h *workspaceHandler) view(w http.ResponseWriter, r *http.Request) {
	h.respond(w, nil, http.StatusOK, h.domain.Selection.View(), nil, nil)
}

func (h *workspaceHandler) addFiles(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = ErrBodyTooLarge
		} else {
			err = fmt.Errorf("%w: %w", ErrInvalidBody, err)
		}
		h.fail(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		h.fail(w, ErrNoFileParts)
		return
	}

	candidates := make([]files.File, 0, len(headers))
	for _, header := range headers {
		f, err := files.FromMultipart(header)
		if err != nil {
			h.fail(w, fmt.Errorf("%w: %w", ErrInvalidBody, err))
			return
		}
		candidates = append(candidates, f)
	}

	ctx, feed := scope(r)

	before := h.domain.Selection.Len()
	view, err := h.domain.Selection.AddFiles(ctx, candidates...)

	// rejected files are reported but do not fail a request that added others
	if err != nil && (errors.Is(err, selection.ErrBusy) || len(view.Entries) == before) {
		h.respond(w, feed, MapHTTPStatus(err), view, nil, err)
		return
	}

	h.respond(w, feed, http.StatusOK, view, nil, nil)
}

func (h *workspaceHandler) removeFile(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(w, ErrInvalidIndex)
		return
	}

	view, err := h.domain.Selection.RemoveFile(index)
	if err != nil {
		h.respond(w, nil, MapHTTPStatus(err), view, nil, err)
		return
	}

	h.respond(w, nil, http.StatusOK, view, nil, nil)
}

func (h *workspaceHandler) clear(w http.ResponseWriter, r *http.Request) {
	view, err := h.domain.Selection.Discard()
	if err != nil {
		h.respond(w, nil, MapHTTPStatus(err), view, nil, err)
		return
	}
	h.respond(w, nil, http.StatusOK, view, nil, nil)
}

func (h *workspaceHandler) setName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, ErrInvalidBody)
		return
	}

	h.respond(w, nil, http.StatusOK, h.domain.Selection.SetName(req.Name), nil, nil)
}

func (h *workspaceHandler) upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.fail(w, ErrInvalidBody)
			return
		}
	}

	target := req.TargetID
	if target == "" {
		target = h.targetID
	}
	if target == "" {
		h.fail(w, ErrMissingTarget)
		return
	}

	ctx, feed := scope(r)

	result, err := h.domain.Processor.Process(ctx, h.domain.Selection, target)
	if err != nil {
		h.respond(w, feed, MapHTTPStatus(err), h.domain.Selection.View(), result, err)
		return
	}

	h.respond(w, feed, http.StatusCreated, h.domain.Selection.View(), result, nil)
}

func (h *workspaceHandler) preview(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusNotFound, selection.ErrPreviewNotFound)
		return
	}

	f, err := h.domain.Previews.Find(id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	data, err := f.ReadAll()
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *workspaceHandler) fail(w http.ResponseWriter, err error) {
	h.respond(w, nil, MapHTTPStatus(err), h.domain.Selection.View(), nil, err)
}

// scope gives the request its own notification feed.
func scope(r *http.Request) (context.Context, *notify.Feed) {
	feed := notify.NewFeed()
	return notify.NewContext(r.Context(), feed), feed
}

// respond writes the response body. feed may be nil for requests that raise
// no notifications.
func (h *workspaceHandler) respond(w http.ResponseWriter, feed *notify.Feed, status int, view selection.View, result *pipeline.Result, err error) {
	notifications := []notify.Notification{}
	if feed != nil {
		notifications = feed.Drain()
	}

	body := Response{
		Selection:     view,
		Result:        result,
		Notifications: notifications,
	}

	if err != nil {
		body.Error = err.Error()
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed", "error", err, "status", status)
		} else {
			h.logger.Warn("request rejected", "error", err, "status", status)
		}
	}

	handlers.RespondJSON(w, status, body)
}
