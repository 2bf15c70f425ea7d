package fleet

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fleetsight/fleetsight/internal/store"
)

// Query serves current fleet state. It is read-only, holds no cache, and is
// safe to call at any frequency concurrently with ingestion: each call is a
// fresh snapshot read from the store.
type Query struct {
	store store.Store
	log   zerolog.Logger
}

// NewQuery returns a Query reading from the given store.
func NewQuery(s store.Store, log zerolog.Logger) *Query {
	return &Query{store: s, log: log}
}

// List returns every machine ordered by last_seen descending. An empty fleet
// is an empty slice, never an error; a store failure is all-or-nothing.
func (q *Query) List(ctx context.Context) ([]*store.MachineRecord, error) {
	machines, err := q.store.ListMachines(ctx)
	if err != nil {
		q.log.Error().Err(err).Msg("list machines failed")
		return nil, fmt.Errorf("list machines: %w", err)
	}
	if machines == nil {
		machines = []*store.MachineRecord{}
	}
	return machines, nil
}

// Summary recomputes fleet-wide compliance counts from a fresh listing.
func (q *Query) Summary(ctx context.Context) (Summary, error) {
	machines, err := q.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		TotalMachines:      TotalCount(machines),
		MachinesWithIssues: CountIssues(machines),
	}, nil
}
