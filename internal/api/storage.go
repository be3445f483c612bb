package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/JaimeStill/triage/pkg/handlers"
	"github.com/JaimeStill/triage/pkg/routes"
	"github.com/JaimeStill/triage/pkg/storage"
)

type artifactHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newArtifactHandler(store storage.System, logger *slog.Logger) *artifactHandler {
	return &artifactHandler{
		store:  store,
		logger: logger.With("handler", "artifacts"),
	}
}

func (h *artifactHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/artifacts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download},
		},
	}
}

func (h *artifactHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := storage.ValidateKey(key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
