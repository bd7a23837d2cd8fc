package datasets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/internal/settings"
	"github.com/JaimeStill/beacon/pkg/broadcast"
)

// Lister fetches the authoritative dataset list.
type Lister interface {
	ListDatasets(ctx context.Context) ([]remote.Dataset, error)
}

type registry struct {
	mu       sync.RWMutex
	items    []Dataset
	activeID string
	lastErr  string

	// Adds that land while a listing is in flight are kept so the listing
	// does not drop them when it replaces items.
	seq        uint64
	refreshing int
	recent     []localAdd

	source Lister
	store  settings.Store
	hub    broadcast.Hub[Snapshot]
	logger *slog.Logger
	now    func() time.Time
}

type localAdd struct {
	seq     uint64
	dataset Dataset
}

// New creates an empty registry. Call Refresh to load the authoritative list and
// restore the persisted active selection.
func New(source Lister, store settings.Store, logger *slog.Logger) System {
	return &registry{
		items:  []Dataset{},
		source: source,
		store:  store,
		logger: logger.With("system", "datasets"),
		now:    time.Now,
	}
}

func (r *registry) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *registry) List() []Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.items)
}

func (r *registry) Find(id string) (*Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexByID(id); i >= 0 {
		d := r.items[i].clone()
		return &d, true
	}
	return nil, false
}

func (r *registry) Active() (*Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.activeID == "" {
		return nil, false
	}
	if i := r.indexByID(r.activeID); i >= 0 {
		d := r.items[i].clone()
		return &d, true
	}
	return nil, false
}

func (r *registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *registry) Add(ctx context.Context, d Dataset) Dataset {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = r.now().UTC()
	}
	if d.Status == "" {
		d.Status = StatusReady
	}
	d.SizeBytes = max(d.SizeBytes, 0)
	d.UsedBy = normalizeModules(d.UsedBy)

	r.mu.Lock()
	previous := r.activeID
	winner := r.mergeLocked(d)
	if winner.Status == StatusReady {
		r.activeID = winner.ID
	}
	if r.activeID != previous {
		r.persistLocked(ctx)
	}
	r.seq++
	if r.refreshing > 0 {
		r.recent = append(r.recent, localAdd{seq: r.seq, dataset: winner.clone()})
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Info("dataset registered", "id", winner.ID, "name", winner.Name, "status", winner.Status)
	r.hub.Publish(snap)
	return winner.clone()
}

func (r *registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	i := r.indexByID(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.items = slices.Delete(r.items, i, i+1)
	if r.activeID == id {
		r.activeID = ""
		if len(r.items) > 0 {
			r.activeID = r.items[0].ID
		}
		r.persistLocked(ctx)
	}
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Info("dataset removed", "id", id, "active_id", snap.ActiveID)
	r.hub.Publish(snap)
	return nil
}

func (r *registry) SetActive(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	r.mu.Lock()
	if r.indexByID(id) < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.activeID = id
	r.lastErr = ""
	err := r.persistLocked(ctx)
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.hub.Publish(snap)
	if err != nil {
		return fmt.Errorf("persist active dataset: %w", err)
	}
	return nil
}

func (r *registry) RecordUsage(id string, modules []string) bool {
	modules = normalizeModules(modules)
	if len(modules) == 0 {
		return false
	}

	r.mu.Lock()
	i := r.indexByID(id)
	if i < 0 {
		r.mu.Unlock()
		return false
	}

	merged := union(r.items[i].UsedBy, modules)
	if len(merged) == len(r.items[i].UsedBy) {
		r.mu.Unlock()
		return false
	}
	r.items[i].UsedBy = merged
	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.hub.Publish(snap)
	return true
}

func (r *registry) Refresh(ctx context.Context) (*RefreshResult, error) {
	start := r.beginRefresh()
	defer r.endRefresh()
	list, err := r.source.ListDatasets(ctx)

	usedFallback := false
	var incoming []Dataset

	switch {
	case err == nil:
		incoming = make([]Dataset, 0, len(list))
		for _, item := range list {
			d := FromRemote(item)
			if d.ID == "" {
				d.ID = uuid.NewString()
			}
			incoming = append(incoming, d)
		}
	case remote.IsTransport(err):
		r.logger.Warn("backend unreachable, using demo dataset", "error", err)
		usedFallback = true
		incoming = []Dataset{demoDataset()}
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		r.mu.Lock()
		r.lastErr = err.Error()
		snap := r.snapshotLocked()
		r.mu.Unlock()

		r.hub.Publish(snap)
		return nil, fmt.Errorf("refresh datasets: %w", err)
	}

	r.mu.Lock()
	added := r.addedSinceLocked(start)
	r.items = []Dataset{}
	for _, d := range incoming {
		r.mergeLocked(d)
	}
	for _, d := range added {
		r.mergeLocked(d)
	}
	r.lastErr = ""

	candidates := []string{r.activeID}
	if !usedFallback {
		candidates = append(candidates, r.persistedActive(ctx))
	}

	r.activeID = ""
	for _, id := range candidates {
		if id == "" {
			continue
		}
		if r.indexByID(id) >= 0 {
			r.activeID = id
			break
		}
		r.logger.Info("active dataset no longer available", "id", id)
	}
	if r.activeID == "" {
		r.activeID = r.mostRecentReadyLocked()
	}

	// The demo listing never overwrites a real persisted selection.
	if !usedFallback {
		r.persistLocked(ctx)
	}

	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.logger.Info("datasets refreshed", "count", len(snap.Datasets), "active_id", snap.ActiveID, "used_fallback", usedFallback)
	r.hub.Publish(snap)

	return &RefreshResult{
		Datasets:     snap.Datasets,
		ActiveID:     snap.ActiveID,
		UsedFallback: usedFallback,
	}, nil
}

func (r *registry) beginRefresh() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshing++
	return r.seq
}

func (r *registry) endRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshing--
	if r.refreshing == 0 {
		r.recent = nil
	}
}

// addedSinceLocked returns the datasets added after start, in the order they landed.
func (r *registry) addedSinceLocked(start uint64) []Dataset {
	var added []Dataset
	for _, a := range r.recent {
		if a.seq > start {
			added = append(added, a.dataset.clone())
		}
	}
	return added
}

func (r *registry) Subscribe() (<-chan Snapshot, func()) {
	return r.hub.Subscribe()
}

// mergeLocked inserts d or reconciles it with the entry of the same name and
// returns the surviving entry. Usage from both entries is preserved. An id held
// by a dataset with another name is never shared: d gets a fresh one instead.
func (r *registry) mergeLocked(d Dataset) Dataset {
	i := slices.IndexFunc(r.items, func(e Dataset) bool { return e.Name == d.Name })
	if j := r.indexByID(d.ID); j >= 0 && j != i {
		r.logger.Warn("dataset id already taken, assigning a new one", "id", d.ID, "name", d.Name, "owner", r.items[j].Name)
		d.ID = uuid.NewString()
	}

	if i < 0 {
		r.items = append(r.items, d.clone())
		r.sortLocked()
		return d
	}

	existing := r.items[i]
	winner := existing
	if supersedes(d, existing) {
		winner = d
		if r.activeID == existing.ID {
			r.activeID = d.ID
		}
	}
	winner.UsedBy = union(existing.UsedBy, d.UsedBy)
	r.items[i] = winner.clone()
	r.sortLocked()
	return winner
}

func (r *registry) sortLocked() {
	slices.SortStableFunc(r.items, func(a, b Dataset) int {
		if c := b.UploadedAt.Compare(a.UploadedAt); c != 0 {
			return c
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
}

func (r *registry) mostRecentReadyLocked() string {
	for _, d := range r.items {
		if d.Status == StatusReady {
			return d.ID
		}
	}
	return ""
}

func (r *registry) persistedActive(ctx context.Context) string {
	id, ok, err := r.store.Get(ctx, ActiveKey)
	if err != nil {
		r.logger.Warn("failed to read persisted active dataset", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

func (r *registry) persistLocked(ctx context.Context) error {
	var err error
	if r.activeID == "" {
		err = r.store.Delete(ctx, ActiveKey)
	} else {
		err = r.store.Set(ctx, ActiveKey, r.activeID)
	}
	if err != nil {
		r.logger.Warn("failed to persist active dataset", "active_id", r.activeID, "error", err)
	}
	return err
}

func (r *registry) indexByID(id string) int {
	return slices.IndexFunc(r.items, func(d Dataset) bool { return d.ID == id })
}

func (r *registry) snapshotLocked() Snapshot {
	return Snapshot{
		Datasets:  cloneAll(r.items),
		ActiveID:  r.activeID,
		LastError: r.lastErr,
	}
}

func cloneAll(items []Dataset) []Dataset {
	out := make([]Dataset, len(items))
	for i, d := range items {
		out[i] = d.clone()
	}
	return out
}

func union(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return normalizeModules(merged)
}
