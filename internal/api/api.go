// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/internal/infrastructure"
	"github.com/JaimeStill/beacon/pkg/middleware"
	"github.com/JaimeStill/beacon/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and schedules the initial dataset and history loads.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)
	domain.Start(runtime.Lifecycle, runtime.Logger)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	return module.New(
		cfg.API.BasePath,
		mux,
		middleware.CORS(&cfg.API.CORS),
		middleware.Logger(runtime.Infrastructure.Logger),
	)
}
