package api

import (
	"net/http"

	"github.com/JaimeStill/triage/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	groups := []routes.Group{
		domain.Runs.Handler(runtime.MaxBodySize).Routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newArtifactHandler(runtime.Storage, runtime.Logger).routes())
	}

	routes.Register(mux, groups...)
}
