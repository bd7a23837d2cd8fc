package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/JaimeStill/beacon/pkg/pagination"
)

type pipeline struct {
	mu      sync.RWMutex
	records []Record
	filter  Filter
	sort    Sort
	page    pagination.PageRequest
	view    View

	store      Store
	pagination pagination.Config
	logger     *slog.Logger
}

// New creates a history pipeline with the default filter, fetch order and the
// first page. Call Refresh to load records.
func New(store Store, cfg pagination.Config, logger *slog.Logger) System {
	p := &pipeline{
		records:    []Record{},
		filter:     DefaultFilter(),
		page:       pagination.PageRequest{Page: 1, PageSize: cfg.DefaultPageSize},
		store:      store,
		pagination: cfg,
		logger:     logger.With("system", "history"),
	}
	p.page.Normalize(cfg)
	p.recomputeLocked()
	return p
}

func (p *pipeline) Handler() *Handler {
	return NewHandler(p, p.logger, p.pagination)
}

func (p *pipeline) Refresh(ctx context.Context) (View, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return View{}, fmt.Errorf("refresh history: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.records = records
	p.recomputeLocked()

	p.logger.Info("history refreshed", "records", len(records), "filtered", p.view.Total)
	return p.view, nil
}

func (p *pipeline) Invalidate(ctx context.Context) error {
	_, err := p.Refresh(ctx)
	return err
}

func (p *pipeline) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

func (p *pipeline) Records() []Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.records)
}

func (p *pipeline) Lookup(leadName string) (*Record, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := slices.IndexFunc(p.records, func(r Record) bool { return r.LeadName == leadName })
	if i < 0 {
		return nil, false
	}
	r := p.records[i]
	return &r, true
}

func (p *pipeline) SetFilter(f Filter) (View, error) {
	if err := f.Validate(); err != nil {
		return View{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.filter = f
	p.recomputeLocked()
	return p.view, nil
}

func (p *pipeline) SetSort(s Sort) (View, error) {
	if err := s.Validate(); err != nil {
		return View{}, err
	}
	if s.Column != "" && s.Direction == "" {
		s.Direction = Ascending
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sort = s
	p.recomputeLocked()
	return p.view, nil
}

func (p *pipeline) ToggleSort(column Column) (View, error) {
	if column == "" || !column.Valid() {
		return View{}, fmt.Errorf("%w: unknown column %q", ErrInvalidSort, column)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sort = ToggleSort(p.sort, column)
	p.recomputeLocked()
	return p.view, nil
}

func (p *pipeline) SetPage(page int) View {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page.Page = page
	p.recomputeLocked()
	return p.view
}

func (p *pipeline) Query(f Filter, s Sort, page int, pageSize int) (View, error) {
	if err := f.Validate(); err != nil {
		return View{}, err
	}
	if err := s.Validate(); err != nil {
		return View{}, err
	}

	req := pagination.PageRequest{Page: page, PageSize: pageSize}
	req.Normalize(p.pagination)

	p.mu.RLock()
	records := p.records
	p.mu.RUnlock()

	return Apply(records, f, s, req), nil
}

// recomputeLocked re-derives the view and writes the clamped page index back.
func (p *pipeline) recomputeLocked() {
	p.view = Apply(p.records, p.filter, p.sort, p.page)
	p.page.Page = p.view.Page
}
