package web

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"

	"github.com/JaimeStill/triage/pkg/routes"
)

// PublicFile returns a handler that serves a single file from fsys. The
// file is read per request so a rewritten file is picked up without restart.
func PublicFile(fsys fs.FS, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(fsys, filename)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, filename, time.Time{}, bytes.NewReader(data))
	}
}

// PublicFileRoutes generates GET routes serving each file at its root-level URL.
func PublicFileRoutes(fsys fs.FS, files ...string) []routes.Route {
	routeList := make([]routes.Route, len(files))
	for i, file := range files {
		routeList[i] = routes.Route{
			Method:  "GET",
			Pattern: "/" + file,
			Handler: PublicFile(fsys, file),
		}
	}
	return routeList
}

// Redirect returns a handler that sends a temporary redirect to target.
func Redirect(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}
