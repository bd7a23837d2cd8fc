package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/internal/remote"
)

const exportContentType = "text/csv; charset=utf-8"

type facade struct {
	backend  Backend
	records  RecordStore
	view     View
	registry Registry
	archive  Archiver
	logger   *slog.Logger
	now      func() time.Time
}

// New creates the action facade. archive may be nil to skip archiving exports.
func New(
	backend Backend,
	records RecordStore,
	view View,
	registry Registry,
	archive Archiver,
	logger *slog.Logger,
) System {
	return &facade{
		backend:  backend,
		records:  records,
		view:     view,
		registry: registry,
		archive:  archive,
		logger:   logger.With("system", "actions"),
		now:      time.Now,
	}
}

func (f *facade) Handler() *Handler {
	return NewHandler(f, f.logger)
}

func (f *facade) Rescore(ctx context.Context, leadName string) (*history.Record, error) {
	leadName = strings.TrimSpace(leadName)
	if leadName == "" {
		return nil, fmt.Errorf("%w: lead_name required", ErrValidation)
	}

	current, err := f.records.Find(ctx, leadName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(current.Company) == "" {
		return nil, fmt.Errorf("%w: company required", ErrValidation)
	}

	prediction, err := f.backend.Predict(ctx, remote.LeadInput{
		LeadName:        current.LeadName,
		Company:         current.Company,
		DealAmount:      current.DealAmount,
		Industry:        current.Industry,
		Stage:           current.Stage,
		EngagementScore: current.EngagementScore,
	})
	if err != nil {
		return nil, fmt.Errorf("rescore %s: %w", leadName, err)
	}

	updated, err := f.records.UpdateScore(ctx, leadName, history.ScoreUpdate{
		LeadScore:      prediction.LeadScore,
		Classification: prediction.Classification,
		GPTSummary:     prediction.GPTSummary,
		PredictedAt:    f.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := f.view.Invalidate(ctx); err != nil {
		f.logger.Warn("history reload after rescore failed", "lead_name", leadName, "error", err)
	}

	f.logger.Info("lead rescored", "lead_name", leadName, "lead_score", updated.LeadScore)
	return updated, nil
}

func (f *facade) ExportCSV(ctx context.Context) (*Export, error) {
	records := f.view.Records()

	export := &Export{
		Filename: fmt.Sprintf("prediction-history-%s.csv", f.now().UTC().Format("20060102-150405")),
		Content:  history.ExportCSV(records),
		Records:  len(records),
	}

	if f.archive != nil {
		key := "exports/" + export.Filename
		if err := f.archive.Upload(ctx, key, strings.NewReader(export.Content), exportContentType); err != nil {
			f.logger.Warn("export archive failed", "key", key, "error", err)
		} else {
			export.StorageKey = key
		}
	}

	f.logger.Info("history exported", "filename", export.Filename, "records", export.Records)
	return export, nil
}

func (f *facade) GenerateInsight(ctx context.Context, input string) (*Insight, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: input required", ErrValidation)
	}

	active, ok := f.registry.Active()
	if !ok {
		return nil, ErrNoActiveDataset
	}

	text, err := f.backend.GenerateInsight(ctx, active.ID, input)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, active.Name)
		}
		return nil, fmt.Errorf("generate insight: %w", err)
	}

	f.registry.RecordUsage(active.ID, []string{ModuleInsights})

	return &Insight{
		DatasetID: active.ID,
		Dataset:   active.Name,
		Text:      text,
	}, nil
}

func (f *facade) Open(ctx context.Context, datasetID, module string) (*Intent, error) {
	if !slices.Contains(Modules, module) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}

	if datasetID == "" {
		active, ok := f.registry.Active()
		if !ok {
			return nil, ErrNoActiveDataset
		}
		datasetID = active.ID
	} else if err := f.registry.SetActive(ctx, datasetID); err != nil {
		return nil, err
	}

	f.registry.RecordUsage(datasetID, []string{module})

	return &Intent{
		Module:    module,
		DatasetID: datasetID,
		Path:      "/" + module + "?dataset=" + url.QueryEscape(datasetID),
	}, nil
}
