package openapi

import (
	"maps"
	"net/http"
)

// Components holds reusable schemas and responses.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

// NewComponents creates Components with the shared error schema and one
// response per common error status.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
		},
		Responses: make(map[string]*Response),
	}

	for name, status := range ErrorResponses {
		c.Responses[name] = ResponseJSON(http.StatusText(status), "Error")
	}

	return c
}

// ErrorResponses names the shared error responses by status code.
var ErrorResponses = map[string]int{
	"BadRequest":           http.StatusBadRequest,
	"NotFound":             http.StatusNotFound,
	"Conflict":             http.StatusConflict,
	"PayloadTooLarge":      http.StatusRequestEntityTooLarge,
	"UnsupportedMediaType": http.StatusUnsupportedMediaType,
	"UnprocessableEntity":  http.StatusUnprocessableEntity,
	"BadGateway":           http.StatusBadGateway,
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// SchemaRef returns a Schema with a $ref to the named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

// ResponseRef returns a Response with a $ref to the named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// RequestBodyJSON creates a JSON request body referencing the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef(schemaName)},
		},
	}
}

// ResponseJSON creates a JSON response referencing the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef(schemaName)},
		},
	}
}

// PathParam creates a required path parameter of the given JSON type.
func PathParam(name, typ, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}
