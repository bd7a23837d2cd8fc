package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/JaimeStill/beacon/internal/datasets"
	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/broadcast"
)

// fallbackRecordsPerFile is the synthetic record count reported per file in demo mode.
const fallbackRecordsPerFile = 150

const retryIngestion = "re-run ingestion"

// Uploader submits files to the backend.
type Uploader interface {
	Upload(ctx context.Context, files []remote.File) (*remote.UploadResult, error)
}

// Registrar receives the datasets produced by a completed run.
type Registrar interface {
	Add(ctx context.Context, d datasets.Dataset) datasets.Dataset
}

// Archiver stores raw uploads. storage.System satisfies it.
type Archiver interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

type pipeline struct {
	mu     sync.Mutex
	run    Run
	gen    uint64
	cancel context.CancelFunc

	uploader  Uploader
	registrar Registrar
	archive   Archiver
	hub       broadcast.Hub[Run]
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an idle pipeline. archive may be nil to skip archiving uploads.
func New(uploader Uploader, registrar Registrar, archive Archiver, logger *slog.Logger) System {
	return &pipeline{
		run:       Run{Stage: StageIdle, Files: []string{}, Checkpoints: []Checkpoint{}},
		uploader:  uploader,
		registrar: registrar,
		archive:   archive,
		logger:    logger.With("system", "ingestion"),
		now:       time.Now,
	}
}

func (p *pipeline) Handler(maxUploadSize int64) *Handler {
	return NewHandler(p, p.logger, maxUploadSize)
}

func (p *pipeline) Current() Run {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run
}

func (p *pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.run = Run{Stage: StageIdle, Files: []string{}, Checkpoints: []Checkpoint{}, UpdatedAt: p.now().UTC()}
	p.hub.Publish(p.run)
}

func (p *pipeline) Subscribe() (<-chan Run, func()) {
	return p.hub.Subscribe()
}

func (p *pipeline) Process(ctx context.Context, files []remote.File) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	runCtx, gen, runID := p.begin(ctx, files)
	defer p.finish(gen)

	if _, err := p.advance(gen, StageUploading, ProgressUploading, uploadDetail(files), nil); err != nil {
		return nil, err
	}

	infos, err := inspectFiles(runCtx, p.logger, files)
	if err != nil {
		return p.fail(gen, err.Error(), nil)
	}

	if p.archive != nil {
		archiveFiles(runCtx, p.logger, p.archive, runID, files, infos)
	}

	if p.superseded(gen) {
		return nil, ErrSuperseded
	}

	res, err := p.uploader.Upload(runCtx, files)
	switch {
	case err == nil:
		return p.complete(ctx, gen, res, infos)
	case p.superseded(gen):
		return nil, ErrSuperseded
	case remote.IsTransport(err):
		p.logger.Warn("backend unreachable, continuing in demo mode", "run_id", runID, "error", err)
		return p.fallback(ctx, gen, infos)
	default:
		msg := err.Error()
		var serr *remote.ServerError
		if errors.As(err, &serr) {
			msg = serr.Message
		}
		return p.fail(gen, msg, infos)
	}
}

func (p *pipeline) complete(ctx context.Context, gen uint64, res *remote.UploadResult, infos []FileInfo) (*Result, error) {
	records := 0
	if res.RecordsProcessed != nil {
		records = max(*res.RecordsProcessed, 0)
	}

	steps := []struct {
		stage    Stage
		progress int
		detail   string
	}{
		{StageExtracting, ProgressExtracting, fmt.Sprintf("Extracting records from %s", fileCount(len(infos)))},
		{StageTransforming, ProgressTransforming, "Transforming and validating records"},
		{StageLoading, ProgressLoading, fmt.Sprintf("Loading %d records", records)},
	}
	for _, s := range steps {
		if _, err := p.advance(gen, s.stage, s.progress, s.detail, nil); err != nil {
			return nil, err
		}
	}

	run, err := p.advance(gen, StageCompleted, ProgressCompleted,
		fmt.Sprintf("Processed %d records from %s", records, fileCount(len(infos))),
		func(r *Run) { r.RecordsProcessed = records },
	)
	if err != nil {
		return nil, err
	}

	ids := p.register(ctx, infos, res.DatasetID)
	p.logger.Info("ingestion completed", "run_id", run.ID, "records", records, "datasets", ids)

	return &Result{Run: run, DatasetIDs: ids, Files: infos}, nil
}

func (p *pipeline) fallback(ctx context.Context, gen uint64, infos []FileInfo) (*Result, error) {
	records := fallbackRecordsPerFile * len(infos)
	demo := func(r *Run) { r.UsedFallback = true }

	steps := []struct {
		stage    Stage
		progress int
		detail   string
	}{
		{StageExtracting, ProgressExtracting, "Demo mode: backend unreachable, extracting sample records"},
		{StageTransforming, ProgressTransforming, "Demo mode: transforming sample records"},
		{StageLoading, ProgressLoading, fmt.Sprintf("Demo mode: loading %d sample records", records)},
	}
	for _, s := range steps {
		if _, err := p.advance(gen, s.stage, s.progress, s.detail, demo); err != nil {
			return nil, err
		}
	}

	run, err := p.advance(gen, StageCompleted, ProgressCompleted,
		fmt.Sprintf("Demo mode: processed %d sample records", records),
		func(r *Run) {
			r.UsedFallback = true
			r.RecordsProcessed = records
		},
	)
	if err != nil {
		return nil, err
	}

	ids := p.register(ctx, infos, "")
	p.logger.Info("ingestion completed in demo mode", "run_id", run.ID, "records", records)

	return &Result{Run: run, DatasetIDs: ids, Files: infos, UsedFallback: true}, nil
}

func (p *pipeline) fail(gen uint64, msg string, infos []FileInfo) (*Result, error) {
	run, err := p.advance(gen, StageFailed, 0, "Ingestion failed", func(r *Run) {
		r.Error = msg
	})
	if err != nil {
		return nil, err
	}

	p.logger.Error("ingestion failed", "run_id", run.ID, "stage_error", msg)

	if infos == nil {
		infos = []FileInfo{}
	}
	return &Result{Run: run, Files: infos, Retry: retryIngestion}, nil
}

// register adds one dataset per file. The backend dataset id is only meaningful
// for a single-file upload.
func (p *pipeline) register(ctx context.Context, infos []FileInfo, backendID string) []string {
	uploadedAt := p.now().UTC()
	ids := make([]string, 0, len(infos))

	for _, info := range infos {
		id := uuid.NewString()
		if len(infos) == 1 && backendID != "" {
			id = backendID
		}

		d := p.registrar.Add(ctx, datasets.Dataset{
			ID:         id,
			Name:       info.Name,
			UploadedAt: uploadedAt,
			FileType:   info.FileType,
			SizeBytes:  info.SizeBytes,
			Status:     datasets.StatusReady,
		})
		ids = append(ids, d.ID)
	}

	return ids
}

// begin cancels any in-flight run and starts a new one at idle.
func (p *pipeline) begin(ctx context.Context, files []remote.File) (context.Context, uint64, uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.gen++

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}

	now := p.now().UTC()
	p.run = Run{
		ID:          uuid.New(),
		Stage:       StageIdle,
		Files:       names,
		Checkpoints: []Checkpoint{{Stage: StageIdle, Progress: 0, At: now}},
		StartedAt:   now,
		UpdatedAt:   now,
	}
	p.hub.Publish(p.run)

	p.logger.Info("ingestion started", "run_id", p.run.ID, "files", len(files))
	return runCtx, p.gen, p.run.ID
}

func (p *pipeline) finish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen == p.gen && p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *pipeline) superseded(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen != p.gen
}

// advance moves the run to stage and publishes the new snapshot. Progress never
// decreases within a run. A superseded run gets ErrSuperseded and publishes nothing.
func (p *pipeline) advance(gen uint64, stage Stage, progress int, detail string, mutate func(*Run)) (Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return Run{}, ErrSuperseded
	}
	if !p.run.Stage.canAdvance(stage) {
		return Run{}, fmt.Errorf("invalid transition from %s to %s", p.run.Stage, stage)
	}

	p.run.Stage = stage
	p.run.Progress = max(p.run.Progress, progress)
	p.run.Detail = detail
	if mutate != nil {
		mutate(&p.run)
	}
	p.run.UpdatedAt = p.now().UTC()
	p.run.Checkpoints = append(p.run.Checkpoints, Checkpoint{
		Stage:    p.run.Stage,
		Progress: p.run.Progress,
		At:       p.run.UpdatedAt,
	})

	p.hub.Publish(p.run)
	return p.run, nil
}

func uploadDetail(files []remote.File) string {
	var total int64
	for _, f := range files {
		total += f.Size()
	}
	return fmt.Sprintf("Uploading %s (%s)", fileCount(len(files)), humanize.IBytes(uint64(total)))
}

func fileCount(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
