// Package routes declares HTTP routes as nested prefix groups and registers
// them on a ServeMux using method-qualified patterns.
package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/folio/pkg/openapi"
)

// Group organizes routes under a common prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux and returns the
// registered patterns in declaration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	for _, group := range groups {
		patterns = registerGroup(mux, "", group, patterns)
	}
	return patterns
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group, patterns []string) []string {
	prefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		p := route.pattern(prefix)
		mux.HandleFunc(p, route.Handler)
		patterns = append(patterns, p)
	}
	for _, child := range group.Children {
		patterns = registerGroup(mux, prefix, child, patterns)
	}
	return patterns
}

// Document adds every route carrying an OpenAPI operation to spec. Wildcard
// segments such as {key...} are written as plain {key} path parameters.
func Document(spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		documentGroup(spec, "", group)
	}
}

func documentGroup(spec *openapi.Spec, parentPrefix string, group Group) {
	prefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}
		path := strings.ReplaceAll(prefix+route.Pattern, "...}", "}")
		if path == "" {
			path = "/"
		}
		spec.AddOperation(route.Method, path, route.OpenAPI)
	}
	for _, child := range group.Children {
		documentGroup(spec, prefix, child)
	}
}
