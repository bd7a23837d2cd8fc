package api

import (
	"log/slog"

	"github.com/JaimeStill/beacon/internal/actions"
	"github.com/JaimeStill/beacon/internal/datasets"
	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/internal/ingestion"
	"github.com/JaimeStill/beacon/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Datasets  datasets.System
	Ingestion ingestion.System
	History   history.System
	Actions   actions.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	registry := datasets.New(
		runtime.Remote,
		runtime.Settings,
		runtime.Logger,
	)

	ingest := ingestion.New(
		runtime.Remote,
		registry,
		runtime.Storage,
		runtime.Logger,
	)

	records := history.NewStore(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	view := history.New(
		records,
		runtime.Pagination,
		runtime.Logger,
	)

	facade := actions.New(
		runtime.Remote,
		records,
		view,
		registry,
		runtime.Storage,
		runtime.Logger,
	)

	return &Domain{
		Datasets:  registry,
		Ingestion: ingest,
		History:   view,
		Actions:   facade,
	}
}

// Start loads the dataset list and the prediction history once the service
// starts. Failures are logged; both can be retried through the API.
func (d *Domain) Start(lc *lifecycle.Coordinator, logger *slog.Logger) {
	logger = logger.With("system", "domain")

	lc.OnStartup(func() {
		result, err := d.Datasets.Refresh(lc.Context())
		if err != nil {
			logger.Warn("initial dataset refresh failed", "error", err)
			return
		}
		logger.Info(
			"datasets loaded",
			"count", len(result.Datasets),
			"active", result.ActiveID,
			"fallback", result.UsedFallback,
		)
	})

	lc.OnStartup(func() {
		view, err := d.History.Refresh(lc.Context())
		if err != nil {
			logger.Warn("initial history load failed", "error", err)
			return
		}
		logger.Info("prediction history loaded", "records", view.Total)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.Ingestion.Reset()
	})
}
