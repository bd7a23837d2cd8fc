package history

import "context"

// System defines the public contract for the stateful prediction history view.
// Every configuration change re-derives the view from the raw records.
type System interface {
	Handler() *Handler

	// Refresh re-fetches the raw records from the store and re-derives the view.
	Refresh(ctx context.Context) (View, error)
	// Invalidate marks the raw records stale after an upstream change and reloads them.
	Invalidate(ctx context.Context) error

	View() View
	Records() []Record
	Lookup(leadName string) (*Record, bool)

	SetFilter(f Filter) (View, error)
	SetSort(s Sort) (View, error)
	ToggleSort(column Column) (View, error)
	SetPage(page int) View

	// Query derives a view over the current records without changing the held configuration.
	Query(f Filter, s Sort, page int, pageSize int) (View, error)
}
