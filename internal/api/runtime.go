package api

import (
	"github.com/JaimeStill/beacon/internal/config"
	"github.com/JaimeStill/beacon/internal/infrastructure"
	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/pagination"
)

// Runtime is what the API handlers see: the shared infrastructure scoped to
// the api module, plus the analysis backend and listing defaults.
type Runtime struct {
	*infrastructure.Infrastructure
	Remote     remote.System
	Pagination pagination.Config
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := infra.Scoped("api")
	return &Runtime{
		Infrastructure: scoped,
		Remote:         remote.New(cfg.Remote.Options(), scoped.Logger),
		Pagination:     cfg.API.Pagination,
	}
}
