package datasets

import "context"

// System defines the public contract for the dataset registry.
type System interface {
	Handler() *Handler

	List() []Dataset
	Find(id string) (*Dataset, bool)
	Active() (*Dataset, bool)
	Snapshot() Snapshot

	// Add inserts d or reconciles it with an existing entry of the same name.
	// A resulting ready dataset becomes active.
	Add(ctx context.Context, d Dataset) Dataset
	Remove(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string) error

	// RecordUsage unions modules into the dataset's UsedBy set and reports whether it changed.
	RecordUsage(id string, modules []string) bool

	Refresh(ctx context.Context) (*RefreshResult, error)
	Subscribe() (<-chan Snapshot, func())
}
