package api

import (
	"net/http"

	"github.com/JaimeStill/folio/pkg/openapi"
	"github.com/JaimeStill/folio/pkg/routes"
)

const apiDescription = "Collects images into a named selection, assembles them into a single PDF, and transfers the document to a target record in bounded chunks."

var schemas = map[string]*openapi.Schema{
	"Preview": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":   {Type: "string", Format: "uuid"},
			"name": {Type: "string"},
			"url":  {Type: "string", Description: "Path serving the original image bytes"},
		},
	},
	"Entry": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name":         {Type: "string"},
			"content_type": {Type: "string", Enum: []any{"image/png", "image/jpeg", "image/webp"}},
			"size":         {Type: "integer", Format: "int64"},
			"preview":      openapi.SchemaRef("Preview"),
		},
	},
	"Selection": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name":    {Type: "string", Description: "Document name, defaults to the first accepted file"},
			"entries": {Type: "array", Items: openapi.SchemaRef("Entry")},
			"busy":    {Type: "boolean"},
		},
	},
	"Notification": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"title":    {Type: "string"},
			"message":  {Type: "string"},
			"severity": {Type: "string", Enum: []any{"success", "info", "warning", "error"}},
		},
	},
	"Session": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"token":        {Type: "string", Description: "Continuation token returned by the first chunk"},
			"cursor":       {Type: "integer", Description: "Encoded characters sent"},
			"total":        {Type: "integer", Description: "Encoded payload length"},
			"chunks":       {Type: "integer"},
			"target_id":    {Type: "string"},
			"content_type": {Type: "string"},
			"name":         {Type: "string"},
			"state":        {Type: "string", Enum: []any{"idle", "sending", "succeeded", "failed"}},
		},
	},
	"Result": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"name":       {Type: "string"},
			"page_count": {Type: "integer"},
			"bytes":      {Type: "integer"},
			"session":    openapi.SchemaRef("Session"),
		},
	},
	"WorkspaceResponse": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"selection":     openapi.SchemaRef("Selection"),
			"result":        openapi.SchemaRef("Result"),
			"error":         {Type: "string"},
			"notifications": {Type: "array", Items: openapi.SchemaRef("Notification")},
		},
	},
	"NameRequest": {
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*openapi.Schema{
			"name": {Type: "string"},
		},
	},
	"UploadRequest": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"target_id": {Type: "string", Description: "Target record; falls back to the configured pipeline target"},
		},
	},
}

func workspace(status int) *openapi.Response {
	return openapi.ResponseJSON(http.StatusText(status), "WorkspaceResponse")
}

func errorResponses(names ...string) map[int]*openapi.Response {
	out := make(map[int]*openapi.Response, len(names))
	for _, name := range names {
		out[openapi.ErrorResponses[name]] = openapi.ResponseRef(name)
	}
	return out
}

func responses(ok int, errs map[int]*openapi.Response) map[int]*openapi.Response {
	errs[ok] = workspace(ok)
	return errs
}

var workspaceOps = struct {
	View, AddFiles, RemoveFile, Clear, SetName, Upload, Preview *openapi.Operation
}{
	View: &openapi.Operation{
		Summary:   "Current selection",
		Tags:      []string{"Selection"},
		Responses: responses(http.StatusOK, errorResponses()),
	},
	AddFiles: &openapi.Operation{
		Summary:     "Add image files",
		Description: "Accepts multipart parts named files. Unsupported files are rejected with a notification while the rest are added.",
		Tags:        []string{"Selection"},
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {Schema: &openapi.Schema{
					Type: "object",
					Properties: map[string]*openapi.Schema{
						"files": {Type: "array", Items: &openapi.Schema{Type: "string", Format: "binary"}},
					},
				}},
			},
		},
		Responses: responses(http.StatusOK, errorResponses("BadRequest", "PayloadTooLarge", "UnsupportedMediaType", "Conflict")),
	},
	RemoveFile: &openapi.Operation{
		Summary:    "Remove a file by position",
		Tags:       []string{"Selection"},
		Parameters: []*openapi.Parameter{openapi.PathParam("index", "integer", "Zero-based entry position")},
		Responses:  responses(http.StatusOK, errorResponses("BadRequest", "NotFound", "Conflict")),
	},
	Clear: &openapi.Operation{
		Summary:   "Clear the selection",
		Tags:      []string{"Selection"},
		Responses: responses(http.StatusOK, errorResponses("Conflict")),
	},
	SetName: &openapi.Operation{
		Summary:     "Rename the document",
		Tags:        []string{"Selection"},
		RequestBody: openapi.RequestBodyJSON("NameRequest", true),
		Responses:   responses(http.StatusOK, errorResponses("BadRequest")),
	},
	Upload: &openapi.Operation{
		Summary:     "Assemble and upload the selection",
		Description: "Normalizes every image, assembles one PDF page per image in selection order, and transfers it to the target in chunks. The selection is cleared on success.",
		Tags:        []string{"Upload"},
		RequestBody: openapi.RequestBodyJSON("UploadRequest", false),
		Responses: responses(http.StatusCreated, errorResponses(
			"BadRequest", "Conflict", "PayloadTooLarge", "UnprocessableEntity", "BadGateway",
		)),
	},
	Preview: &openapi.Operation{
		Summary:    "Original image bytes for a selection entry",
		Tags:       []string{"Selection"},
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "string", "Preview identifier")},
		Responses: map[int]*openapi.Response{
			http.StatusOK:       {Description: "Image bytes"},
			http.StatusNotFound: openapi.ResponseRef("NotFound"),
		},
	},
}

var storageOps = struct {
	Exists, Download, Delete *openapi.Operation
}{
	Exists: &openapi.Operation{
		Summary:    "Check an uploaded document",
		Tags:       []string{"Storage"},
		Parameters: []*openapi.Parameter{openapi.PathParam("key", "string", "Blob key")},
		Responses: map[int]*openapi.Response{
			http.StatusOK:       {Description: "Document exists"},
			http.StatusNotFound: {Description: "Document not found"},
		},
	},
	Download: &openapi.Operation{
		Summary:    "Download an uploaded document",
		Tags:       []string{"Storage"},
		Parameters: []*openapi.Parameter{openapi.PathParam("key", "string", "Blob key")},
		Responses: map[int]*openapi.Response{
			http.StatusOK: {
				Description: "PDF document",
				Content: map[string]*openapi.MediaType{
					"application/pdf": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
				},
			},
			http.StatusNotFound: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete an uploaded document",
		Tags:       []string{"Storage"},
		Parameters: []*openapi.Parameter{openapi.PathParam("key", "string", "Blob key")},
		Responses: map[int]*openapi.Response{
			http.StatusNoContent: {Description: "Deleted"},
			http.StatusNotFound:  openapi.ResponseRef("NotFound"),
		},
	},
}

// newSpec documents groups as served under basePath.
func newSpec(version, basePath string, groups ...routes.Group) ([]byte, error) {
	spec := openapi.NewSpec("Folio API", version)
	spec.SetDescription(apiDescription)
	spec.AddServer(basePath)
	spec.Components.AddSchemas(schemas)

	routes.Document(spec, groups...)

	return openapi.MarshalJSON(spec)
}

func specRoute(data []byte) routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/openapi.json", Handler: openapi.ServeSpec(data)},
		},
	}
}
