package api

import (
	"net/http"

	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	archive := NewArchiveHandler(runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Datasets.Handler().Routes(),
		domain.Ingestion.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.History.Handler().Routes(),
		domain.Actions.Handler().Routes(),
		archive.Routes(),
	)
}
