package api

import (
	"net/http"

	"github.com/JaimeStill/folio/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) ([]string, error) {
	groups := []routes.Group{
		newWorkspaceHandler(domain, runtime.Logger, runtime.MaxUploadSize, runtime.Pipeline.TargetID).routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newStorageHandler(runtime.Storage, runtime.Logger).routes())
	}

	spec, err := newSpec(runtime.Version, runtime.BasePath, groups...)
	if err != nil {
		return nil, err
	}
	groups = append(groups, specRoute(spec))

	return routes.Register(mux, groups...), nil
}
