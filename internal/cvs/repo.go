package cvs

import "context"

// Repo persists whole CV aggregates. Every write replaces the full aggregate;
// there is no partial mutation.
type Repo interface {
	Create(ctx context.Context, cv CVAggregate) (int64, error)
	Replace(ctx context.Context, id int64, cv CVAggregate) error
	Fetch(ctx context.Context, id int64) (CVAggregate, error)
	ListSummaries(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id int64) error
}
